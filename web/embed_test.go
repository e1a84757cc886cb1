package web_test

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/menuboard/web"
)

func TestAssets(t *testing.T) {
	t.Parallel()

	pub, err := web.Public()
	require.NoError(t, err)
	_, err = fs.Stat(pub, "index.html")
	assert.NoError(t, err)

	adm, err := web.Admin()
	require.NoError(t, err)
	for _, name := range []string{"index.html", "layout.js"} {
		_, err = fs.Stat(adm, name)
		assert.NoError(t, err, name)
	}
}
