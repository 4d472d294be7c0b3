package linker

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldog/jspack/pkg/compiler"
	"github.com/coldog/jspack/pkg/resolve"
	"github.com/coldog/jspack/pkg/testutil"
)

func build(t *testing.T, tree testutil.Tree, entries ...compiler.Entry) *compiler.Graph {
	t.Helper()
	root := testutil.WriteTree(t, tree)
	for i := range entries {
		entries[i].Path = filepath.Join(root, entries[i].Path)
	}
	g, err := compiler.Build(context.Background(), compiler.Options{
		Root:     root,
		Entries:  entries,
		Resolver: resolve.New([]string{".js"}),
	})
	require.NoError(t, err)
	return g
}

func TestExample(t *testing.T) {
	g := build(t, testutil.Tree{
		"index.js":  `const c = require("./common"); console.log(c);`,
		"common.js": `module.exports = 1;`,
	}, compiler.Entry{Name: "main", Path: "index.js"})

	chunks := Assemble(g)
	require.Len(t, chunks, 1)
	assert.Equal(t, "main", chunks[0].Name)
	assert.Equal(t, "./index.js", chunks[0].Entry)
	assert.Equal(t, []string{"./index.js", "./common.js"}, chunks[0].IDs())

	asset, err := Render(chunks[0], "")
	require.NoError(t, err)
	assert.Equal(t, "main.js", asset.Filename)
	assert.Equal(t, 2, asset.Modules)

	content := string(asset.Content)
	assert.True(t, strings.HasPrefix(content, "/* generated by jspack. DO NOT EDIT. */\n(function () {\n"))
	assert.NotContains(t, content, "return __jspack_require__(\"./index.js\")")
	assert.Contains(t, content, "function __jspack_require__(id) {")
	assert.Contains(t, content, `modules["./index.js"] = function (module, exports, __jspack_require__) {
const c = __jspack_require__("./common.js"); console.log(c);
};`)
	assert.Contains(t, content, `modules["./common.js"] = function (module, exports, __jspack_require__) {
module.exports = 1;
};`)
	assert.True(t, strings.HasSuffix(content, "__jspack_require__(\"./index.js\");\n})();\n"))
	assert.Less(t, strings.Index(content, `modules["./index.js"]`), strings.Index(content, `modules["./common.js"]`))
}

func TestAssembleMembershipIsReachability(t *testing.T) {
	tree := testutil.Tree{
		"src/index.js":  `require("./a"); require("./b");`,
		"src/a.js":      `require("./common");`,
		"src/b.js":      `require("./a");`,
		"src/common.js": `require("./a");`,
		"src/admin.js":  `require("./b"); require("./extra");`,
		"src/extra.js":  ``,
		"src/alone.js":  ``,
	}
	g := build(t, tree,
		compiler.Entry{Name: "admin", Path: "src/admin.js"},
		compiler.Entry{Name: "alone", Path: "src/alone.js"},
		compiler.Entry{Name: "main", Path: "src/index.js"},
	)

	chunks := Assemble(g)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		got := c.IDs()
		want := g.Reachable(c.Entry)
		sort.Strings(got)
		sort.Strings(want)
		assert.Equal(t, want, got, c.Name)
		assert.Equal(t, c.Entry, c.Modules[0].ID, c.Name)
	}

	assert.Equal(t, []string{"./src/alone.js"}, chunks[1].IDs())
	assert.Contains(t, chunks[0].IDs(), "./src/common.js")
	assert.NotContains(t, chunks[2].IDs(), "./src/extra.js")
}

func TestAssembleCommonOnlyWhenReachable(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		g := build(t, testutil.Tree{
			"src/index.js":  `require("./common");`,
			"src/common.js": ``,
		}, compiler.Entry{Name: "main", Path: "src/index.js"})
		assert.Equal(t, []string{"./src/index.js", "./src/common.js"}, Assemble(g)[0].IDs())
	})

	t.Run("not reachable", func(t *testing.T) {
		g := build(t, testutil.Tree{
			"src/index.js":  `console.log("no deps");`,
			"src/common.js": ``,
		}, compiler.Entry{Name: "main", Path: "src/index.js"})
		assert.Equal(t, []string{"./src/index.js"}, Assemble(g)[0].IDs())
	})
}

func TestAssembleSharedModulesAreDuplicated(t *testing.T) {
	g := build(t, testutil.Tree{
		"x.js": `require("./z");`,
		"y.js": `require("./z");`,
		"z.js": `module.exports = {};`,
	}, compiler.Entry{Name: "x", Path: "x.js"}, compiler.Entry{Name: "y", Path: "y.js"})

	chunks := Assemble(g)
	require.Len(t, chunks, 2)
	assert.Equal(t, []string{"./x.js", "./z.js"}, chunks[0].IDs())
	assert.Equal(t, []string{"./y.js", "./z.js"}, chunks[1].IDs())
	assert.Same(t, chunks[0].Modules[1], chunks[1].Modules[1])
}

func TestChunkFilename(t *testing.T) {
	c := &Chunk{
		Name:    "admin",
		Entry:   "./admin.js",
		Modules: []*compiler.Module{{ID: "./admin.js", Hash: "abc"}},
	}

	assert.Equal(t, "admin.js", c.Filename(""))
	assert.Equal(t, "js/admin.bundle.js", c.Filename("js/[name].bundle.js"))

	hashed := c.Filename("[name]-[hash].js")
	assert.Equal(t, "admin-"+c.Hash()[:8]+".js", hashed)

	other := &Chunk{Name: "admin", Modules: []*compiler.Module{{ID: "./admin.js", Hash: "abd"}}}
	assert.NotEqual(t, hashed, other.Filename("[name]-[hash].js"))
}

func TestRenderAllRejectsCollisions(t *testing.T) {
	chunks := []*Chunk{
		{Name: "a", Entry: "./a.js", Modules: []*compiler.Module{{ID: "./a.js"}}},
		{Name: "b", Entry: "./b.js", Modules: []*compiler.Module{{ID: "./b.js"}}},
	}

	assets, err := RenderAll(chunks, "[name].js")
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "a.js", assets[0].Filename)
	assert.Equal(t, "b.js", assets[1].Filename)

	_, err = RenderAll(chunks, "bundle.js")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bundle.js")
}

func TestRenderTerminatesTrailingComments(t *testing.T) {
	c := &Chunk{
		Name:    "main",
		Entry:   "./a.js",
		Modules: []*compiler.Module{{ID: "./a.js", Source: "module.exports = 1; // trailing"}},
	}
	asset, err := Render(c, "")
	require.NoError(t, err)
	assert.Contains(t, string(asset.Content), "// trailing\n};\n")
}
