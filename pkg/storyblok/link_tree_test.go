package storyblok_test

import (
	"testing"

	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parent(id int64) *int64 {
	return &id
}

func TestBuildLinkTree(t *testing.T) {
	t.Parallel()

	tree := storyblok.BuildLinkTree([]storyblok.LinkEntry{
		{ID: 3, Name: "Setup", Slug: "docs/setup", ParentID: parent(1), Position: 10},
		{ID: 1, Name: "Docs", Slug: "docs", IsFolder: true},
		{ID: 2, Name: "Intro", Slug: "docs/intro", ParentID: parent(1), Position: 0},
		{ID: 4, Name: "Orphan", Slug: "orphan", ParentID: parent(99)},
		{ID: 5, Name: "Alpha", Slug: "alpha"},
		{ID: 6, Name: "Self", Slug: "self", ParentID: parent(6), Position: 1},
	})

	require.Len(t, tree, 4)
	assert.Equal(t, []string{"alpha", "docs", "orphan", "self"}, []string{tree[0].Slug, tree[1].Slug, tree[2].Slug, tree[3].Slug})

	docs := tree[1]
	require.Len(t, docs.Children, 2)
	assert.Equal(t, "docs/intro", docs.Children[0].Slug)
	assert.Equal(t, "docs/setup", docs.Children[1].Slug)
}

func TestBuildLinkTree_Empty(t *testing.T) {
	t.Parallel()

	tree := storyblok.BuildLinkTree(nil)
	assert.NotNil(t, tree)
	assert.Empty(t, tree)
}

func TestLinkNode_Walk(t *testing.T) {
	t.Parallel()

	tree := storyblok.BuildLinkTree([]storyblok.LinkEntry{
		{ID: 1, Slug: "docs", IsFolder: true},
		{ID: 2, Slug: "docs/setup", ParentID: parent(1), IsFolder: true},
		{ID: 3, Slug: "docs/setup/cli", ParentID: parent(2)},
		{ID: 4, Slug: "docs/api", ParentID: parent(1), Position: 5},
	})
	require.Len(t, tree, 1)

	var visited []string

	tree[0].Walk(func(node *storyblok.LinkNode, depth int) bool {
		visited = append(visited, node.Slug)

		return depth < 1
	})

	assert.Equal(t, []string{"docs", "docs/setup", "docs/api"}, visited)
}
