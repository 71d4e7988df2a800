package session_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copyartifacts/internal/logging"
	"copyartifacts/internal/session"
	"copyartifacts/internal/testsupport"
)

// A singleton imported from a folder that also holds a separate, not yet
// imported album must not drag that album's files along. Importing the album
// afterwards picks them up without reaching back into the parent folder.
func TestSingletonThenAlbumFromNestedFolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	parent := filepath.Join(t.TempDir(), "incoming")
	album := filepath.Join(parent, "the_album")
	testsupport.Layout(t, parent,
		"singleton.mp3",
		"top_artifact.file",
		"top_sub_folder/top_sub_artifact.file",
		"the_album/track_1.mp3",
		"the_album/artifact.file",
		"the_album/artifact.file2",
		"the_album/sub_folder/sub_artifact.file",
	)
	library := cfg.Paths.LibraryDir
	singletons := filepath.Join(library, "singletons")
	albumDest := filepath.Join(library, "Tag Artist", "Tag Album")

	first := session.New(session.OptionsFromConfig(cfg), logging.NewNop())
	require.NoError(t, first.OnItemImported(parent, singletons, []string{"singleton.mp3"}, true))
	report, err := first.OnSessionEnd(context.Background(), false, false)
	require.NoError(t, err)
	assert.False(t, report.Failed())
	assert.Equal(t, 2, report.Summary.Transferred)

	assert.Equal(t, "top_artifact.file", testsupport.ReadText(t, filepath.Join(singletons, "top_artifact.file")))
	assert.Equal(t, "top_sub_folder/top_sub_artifact.file",
		testsupport.ReadText(t, filepath.Join(singletons, "top_sub_folder", "top_sub_artifact.file")))
	assert.False(t, testsupport.Exists(t, filepath.Join(singletons, "the_album")))
	assert.False(t, testsupport.Exists(t, filepath.Join(singletons, "artifact.file")))

	second := session.New(session.OptionsFromConfig(cfg), logging.NewNop())
	require.NoError(t, second.OnItemImported(album, albumDest, []string{"track_1.mp3"}, false))
	report, err = second.OnSessionEnd(context.Background(), false, false)
	require.NoError(t, err)
	assert.False(t, report.Failed())
	assert.Equal(t, 3, report.Summary.Transferred)

	for _, rel := range []string{"artifact.file", "artifact.file2", "sub_folder/sub_artifact.file"} {
		assert.Equal(t, "the_album/"+rel, testsupport.ReadText(t, filepath.Join(albumDest, filepath.FromSlash(rel))))
	}
	assert.False(t, testsupport.Exists(t, filepath.Join(albumDest, "top_artifact.file")))
	assert.False(t, testsupport.Exists(t, filepath.Join(albumDest, "top_sub_folder")))
	assert.True(t, testsupport.Exists(t, filepath.Join(parent, "the_album", "artifact.file")), "copy keeps sources")
}

func TestFlattenedMoveLeavesNoSources(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMove(true), testsupport.WithFlatten())
	src := filepath.Join(t.TempDir(), "album")
	paths := testsupport.Layout(t, src, "01.flac", "cover.jpg", "logs/rip.log", "scans/rip.log")
	dest := filepath.Join(cfg.Paths.LibraryDir, "Artist", "Album")

	s := session.New(session.OptionsFromConfig(cfg), logging.NewNop())
	require.NoError(t, s.OnItemImported(src, dest, []string{"01.flac"}, false))
	report, err := s.OnSessionEnd(context.Background(), cfg.Artifacts.Flatten, cfg.Artifacts.Move)
	require.NoError(t, err)
	require.False(t, report.Failed(), "report: %+v", report)

	assert.Equal(t, "move", report.Mode)
	assert.Equal(t, "logs/rip.log", testsupport.ReadText(t, filepath.Join(dest, "rip.log")))
	assert.Equal(t, "scans/rip.log", testsupport.ReadText(t, filepath.Join(dest, "rip-2.log")))
	for _, p := range paths[1:] {
		assert.False(t, testsupport.Exists(t, p), "source %s should be moved", p)
	}
	assert.True(t, testsupport.Exists(t, paths[0]), "consumed media is not an artifact")
}
