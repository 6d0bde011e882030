package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	assert.Equal(t, "hello", Text("<b>hello</b>"))
	assert.Equal(t, "", Text("<script>alert(1)</script>"))
	assert.Equal(t, "Tom & Jerry", Text("  Tom & Jerry "))
	assert.Equal(t, "Привет, мир", Text("<i>Привет</i>, мир"))
}

func TestFields(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Fields([]string{"<p>a</p>", "<br>", "b"}))
}
