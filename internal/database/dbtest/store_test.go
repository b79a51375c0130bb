package dbtest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/downloader/internal/auth"
	"github.com/therealutkarshpriyadarshi/downloader/internal/browser"
	"github.com/therealutkarshpriyadarshi/downloader/internal/database"
	"github.com/therealutkarshpriyadarshi/downloader/internal/database/dbtest"
	"github.com/therealutkarshpriyadarshi/downloader/internal/downloads"
	"github.com/therealutkarshpriyadarshi/downloader/internal/paths"
	"github.com/therealutkarshpriyadarshi/downloader/internal/plex"
	"github.com/therealutkarshpriyadarshi/downloader/internal/settings"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

// Both stores must satisfy every service's persistence interface
var (
	_ auth.Repository      = (*dbtest.Store)(nil)
	_ downloads.Repository = (*dbtest.Store)(nil)
	_ paths.Repository     = (*dbtest.Store)(nil)
	_ settings.Repository  = (*dbtest.Store)(nil)
	_ browser.PathLister   = (*dbtest.Store)(nil)
	_ plex.SettingsReader  = (*dbtest.Store)(nil)

	_ auth.Repository      = (*database.Repository)(nil)
	_ downloads.Repository = (*database.Repository)(nil)
	_ paths.Repository     = (*database.Repository)(nil)
	_ settings.Repository  = (*database.Repository)(nil)
	_ browser.PathLister   = (*database.Repository)(nil)
	_ plex.SettingsReader  = (*database.Repository)(nil)
)

func TestStore_DefaultPathRules(t *testing.T) {
	store := dbtest.New()
	ctx := context.Background()

	a := &models.DownloadPath{Name: "A", Path: "/a"}
	b := &models.DownloadPath{Name: "B", Path: "/b"}
	require.NoError(t, store.CreatePath(ctx, a))
	require.NoError(t, store.CreatePath(ctx, b))

	require.NoError(t, store.SetDefaultPath(ctx, a.ID))
	require.NoError(t, store.SetDefaultPath(ctx, b.ID))

	def, err := store.GetDefaultPath(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, def.ID)

	assert.ErrorIs(t, store.DeletePath(ctx, b.ID), database.ErrDefaultPath)
	require.NoError(t, store.DeletePath(ctx, a.ID))
	require.NoError(t, store.DeletePath(ctx, b.ID))
	assert.ErrorIs(t, store.SetDefaultPath(ctx, a.ID), database.ErrNotFound)
}

func TestStore_CancelDownload(t *testing.T) {
	store := dbtest.New()
	ctx := context.Background()

	d := &models.Download{URL: "https://1fichier.com/?x"}
	require.NoError(t, store.CreateDownload(ctx, d))

	cancelled, err := store.CancelDownload(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DownloadStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CompletedAt)

	current, err := store.CancelDownload(ctx, d.ID)
	assert.ErrorIs(t, err, database.ErrInvalidTransition)
	assert.Equal(t, models.DownloadStatusCancelled, current.Status)
}
