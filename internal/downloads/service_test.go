package downloads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/downloader/internal/apperror"
	"github.com/therealutkarshpriyadarshi/downloader/internal/database"
	"github.com/therealutkarshpriyadarshi/downloader/internal/logging"
	"github.com/therealutkarshpriyadarshi/downloader/internal/queue"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) CreateDownload(ctx context.Context, d *models.Download) error {
	args := m.Called(ctx, d)
	if args.Error(0) == nil {
		if d.ID == "" {
			d.ID = testID
		}
		d.AddedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockRepo) GetDownload(ctx context.Context, id string) (*models.Download, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Download), args.Error(1)
}

func (m *MockRepo) ListDownloads(ctx context.Context) ([]*models.Download, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Download), args.Error(1)
}

func (m *MockRepo) CancelDownload(ctx context.Context, id string) (*models.Download, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Download), args.Error(1)
}

func (m *MockRepo) GetPath(ctx context.Context, id string) (*models.DownloadPath, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DownloadPath), args.Error(1)
}

func (m *MockRepo) GetDefaultPath(ctx context.Context) (*models.DownloadPath, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DownloadPath), args.Error(1)
}

func (m *MockRepo) GetSettings(ctx context.Context) (models.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Settings), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishDownloadEvent(ctx context.Context, event queue.DownloadEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

const (
	testID     = "6f1c2a8e-3b4d-4e5f-8a9b-0c1d2e3f4a5b"
	testPathID = "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
)

func strPtr(s string) *string { return &s }

func newTestService(repo Repository, pub Publisher) *Service {
	return NewService(repo, pub, []string{"1fichier.com", "filehost.example"}, "/data", logging.NewNopLogger())
}

func TestAdd_ValidURL(t *testing.T) {
	repo := new(MockRepo)
	pub := new(MockPublisher)
	svc := newTestService(repo, pub)

	repo.On("GetDefaultPath", mock.Anything).Return(nil, database.ErrNotFound)
	repo.On("GetSettings", mock.Anything).Return(models.NewSettings(), nil)
	repo.On("CreateDownload", mock.Anything, mock.MatchedBy(func(d *models.Download) bool {
		return d.URL == "https://filehost.example/abc" && d.Status == models.DownloadStatusPending && d.Progress == 0
	})).Return(nil)
	pub.On("PublishDownloadEvent", mock.Anything, mock.MatchedBy(func(e queue.DownloadEvent) bool {
		return e.Event == queue.EventDownloadAdded && e.DownloadID == testID
	})).Return(nil)

	d, err := svc.Add(context.Background(), AddRequest{URL: "https://filehost.example/abc"})
	require.NoError(t, err)

	assert.Equal(t, models.DownloadStatusPending, d.Status)
	assert.False(t, d.AddedAt.IsZero())
	assert.Nil(t, d.TargetPath)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestAdd_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"not a url", "not-a-url"},
		{"wrong scheme", "ftp://1fichier.com/?abc"},
		{"other host", "https://example.com/1fichier.com"},
		{"lookalike host", "https://evil1fichier.com/?abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepo)
			svc := newTestService(repo, nil)

			_, err := svc.Add(context.Background(), AddRequest{URL: tt.url})
			require.Error(t, err)
			assert.True(t, apperror.Is(err, apperror.KindValidation))
			repo.AssertNotCalled(t, "CreateDownload", mock.Anything, mock.Anything)
		})
	}
}

func TestAdd_SubdomainAllowed(t *testing.T) {
	repo := new(MockRepo)
	svc := newTestService(repo, nil)

	repo.On("CreateDownload", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Add(context.Background(), AddRequest{
		URL:        "https://a-1.1FICHIER.com/?abc",
		TargetPath: strPtr("/data/x"),
	})
	assert.NoError(t, err)
}

func TestAdd_TargetPathResolution(t *testing.T) {
	t.Run("explicit target path wins", func(t *testing.T) {
		repo := new(MockRepo)
		svc := newTestService(repo, nil)
		repo.On("CreateDownload", mock.Anything, mock.Anything).Return(nil)

		d, err := svc.Add(context.Background(), AddRequest{
			URL:        "https://1fichier.com/?a",
			TargetPath: strPtr(" /data/explicit "),
			PathID:     strPtr(testPathID),
		})
		require.NoError(t, err)
		assert.Equal(t, "/data/explicit", *d.TargetPath)
		repo.AssertNotCalled(t, "GetPath", mock.Anything, mock.Anything)
	})

	t.Run("path id", func(t *testing.T) {
		repo := new(MockRepo)
		svc := newTestService(repo, nil)
		repo.On("GetPath", mock.Anything, testPathID).Return(&models.DownloadPath{ID: testPathID, Path: "/data/movies"}, nil)
		repo.On("CreateDownload", mock.Anything, mock.Anything).Return(nil)

		d, err := svc.Add(context.Background(), AddRequest{URL: "https://1fichier.com/?a", PathID: strPtr(testPathID)})
		require.NoError(t, err)
		assert.Equal(t, "/data/movies", *d.TargetPath)
	})

	t.Run("unknown path id", func(t *testing.T) {
		repo := new(MockRepo)
		svc := newTestService(repo, nil)
		repo.On("GetPath", mock.Anything, testPathID).Return(nil, database.ErrNotFound)

		_, err := svc.Add(context.Background(), AddRequest{URL: "https://1fichier.com/?a", PathID: strPtr(testPathID)})
		assert.True(t, apperror.Is(err, apperror.KindValidation))

		_, err = svc.Add(context.Background(), AddRequest{URL: "https://1fichier.com/?a", PathID: strPtr("42")})
		assert.True(t, apperror.Is(err, apperror.KindValidation))
		repo.AssertNotCalled(t, "CreateDownload", mock.Anything, mock.Anything)
	})

	t.Run("default path", func(t *testing.T) {
		repo := new(MockRepo)
		svc := newTestService(repo, nil)
		repo.On("GetDefaultPath", mock.Anything).Return(&models.DownloadPath{Path: "/data/default", IsDefault: true}, nil)
		repo.On("CreateDownload", mock.Anything, mock.Anything).Return(nil)

		d, err := svc.Add(context.Background(), AddRequest{URL: "https://1fichier.com/?a"})
		require.NoError(t, err)
		assert.Equal(t, "/data/default", *d.TargetPath)
	})

	t.Run("default_path setting", func(t *testing.T) {
		repo := new(MockRepo)
		svc := newTestService(repo, nil)
		settings := models.NewSettings()
		settings[models.SettingDefaultPath] = strPtr("/data/fallback")
		repo.On("GetDefaultPath", mock.Anything).Return(nil, database.ErrNotFound)
		repo.On("GetSettings", mock.Anything).Return(settings, nil)
		repo.On("CreateDownload", mock.Anything, mock.Anything).Return(nil)

		d, err := svc.Add(context.Background(), AddRequest{URL: "https://1fichier.com/?a"})
		require.NoError(t, err)
		assert.Equal(t, "/data/fallback", *d.TargetPath)
	})
}

func TestAdd_RejectsTargetOutsideRoot(t *testing.T) {
	t.Run("explicit target path", func(t *testing.T) {
		for _, target := range []string{"../../etc", "/etc", "/data/../etc"} {
			repo := new(MockRepo)
			pub := new(MockPublisher)
			svc := newTestService(repo, pub)

			_, err := svc.Add(context.Background(), AddRequest{URL: "https://1fichier.com/?a", TargetPath: strPtr(target)})
			require.Error(t, err, target)
			assert.True(t, apperror.Is(err, apperror.KindValidation), target)
			repo.AssertNotCalled(t, "CreateDownload", mock.Anything, mock.Anything)
			pub.AssertNotCalled(t, "PublishDownloadEvent", mock.Anything, mock.Anything)
		}
	})

	t.Run("relative target path", func(t *testing.T) {
		repo := new(MockRepo)
		svc := newTestService(repo, nil)
		repo.On("CreateDownload", mock.Anything, mock.Anything).Return(nil)

		d, err := svc.Add(context.Background(), AddRequest{URL: "https://1fichier.com/?a", TargetPath: strPtr("movies")})
		require.NoError(t, err)
		assert.Equal(t, "/data/movies", *d.TargetPath)
	})

	t.Run("default_path setting", func(t *testing.T) {
		repo := new(MockRepo)
		svc := newTestService(repo, nil)
		settings := models.NewSettings()
		settings[models.SettingDefaultPath] = strPtr("/tmp/elsewhere")
		repo.On("GetDefaultPath", mock.Anything).Return(nil, database.ErrNotFound)
		repo.On("GetSettings", mock.Anything).Return(settings, nil)

		_, err := svc.Add(context.Background(), AddRequest{URL: "https://1fichier.com/?a"})
		assert.True(t, apperror.Is(err, apperror.KindValidation))
		repo.AssertNotCalled(t, "CreateDownload", mock.Anything, mock.Anything)
	})
}

func TestAdd_CustomFilename(t *testing.T) {
	repo := new(MockRepo)
	svc := newTestService(repo, nil)
	repo.On("CreateDownload", mock.Anything, mock.Anything).Return(nil)

	d, err := svc.Add(context.Background(), AddRequest{
		URL: "https://1fichier.com/?a", TargetPath: strPtr("/data/d"), CustomFilename: strPtr(" movie.mkv "),
	})
	require.NoError(t, err)
	assert.Equal(t, "movie.mkv", *d.CustomFilename)

	_, err = svc.Add(context.Background(), AddRequest{
		URL: "https://1fichier.com/?a", TargetPath: strPtr("/data/d"), CustomFilename: strPtr("../etc/passwd"),
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestAdd_PublishFailureDoesNotFail(t *testing.T) {
	repo := new(MockRepo)
	pub := new(MockPublisher)
	svc := newTestService(repo, pub)

	repo.On("CreateDownload", mock.Anything, mock.Anything).Return(nil)
	pub.On("PublishDownloadEvent", mock.Anything, mock.Anything).Return(errors.New("channel closed"))

	_, err := svc.Add(context.Background(), AddRequest{URL: "https://1fichier.com/?a", TargetPath: strPtr("/data/d")})
	assert.NoError(t, err)
}

func TestAdd_StoreFailure(t *testing.T) {
	repo := new(MockRepo)
	svc := newTestService(repo, nil)
	repo.On("CreateDownload", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.Add(context.Background(), AddRequest{URL: "https://1fichier.com/?a", TargetPath: strPtr("/data/d")})
	assert.True(t, apperror.Is(err, apperror.KindInternal))
}

func TestGet(t *testing.T) {
	repo := new(MockRepo)
	svc := newTestService(repo, nil)

	repo.On("GetDownload", mock.Anything, testID).Return(&models.Download{ID: testID}, nil)

	d, err := svc.Get(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, testID, d.ID)

	_, err = svc.Get(context.Background(), "123")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	repo.AssertNumberOfCalls(t, "GetDownload", 1)
}

func TestCancel(t *testing.T) {
	t.Run("pending download", func(t *testing.T) {
		repo := new(MockRepo)
		pub := new(MockPublisher)
		svc := newTestService(repo, pub)

		repo.On("CancelDownload", mock.Anything, testID).Return(&models.Download{ID: testID, Status: models.DownloadStatusCancelled}, nil)
		pub.On("PublishDownloadEvent", mock.Anything, mock.MatchedBy(func(e queue.DownloadEvent) bool {
			return e.Event == queue.EventDownloadCancelled
		})).Return(nil)

		d, err := svc.Cancel(context.Background(), testID)
		require.NoError(t, err)
		assert.Equal(t, models.DownloadStatusCancelled, d.Status)
		pub.AssertExpectations(t)
	})

	t.Run("completed download is a conflict", func(t *testing.T) {
		repo := new(MockRepo)
		pub := new(MockPublisher)
		svc := newTestService(repo, pub)

		repo.On("CancelDownload", mock.Anything, testID).
			Return(&models.Download{ID: testID, Status: models.DownloadStatusCompleted}, database.ErrInvalidTransition)

		_, err := svc.Cancel(context.Background(), testID)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindConflict))
		assert.Equal(t, "Download already completed", apperror.Message(err))
		pub.AssertNotCalled(t, "PublishDownloadEvent", mock.Anything, mock.Anything)
	})

	t.Run("missing download", func(t *testing.T) {
		repo := new(MockRepo)
		svc := newTestService(repo, nil)
		repo.On("CancelDownload", mock.Anything, testID).Return(nil, database.ErrNotFound)

		_, err := svc.Cancel(context.Background(), testID)
		assert.True(t, apperror.Is(err, apperror.KindNotFound))

		_, err = svc.Cancel(context.Background(), "not-a-uuid")
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
	})
}

func TestList(t *testing.T) {
	repo := new(MockRepo)
	svc := newTestService(repo, nil)

	repo.On("ListDownloads", mock.Anything).Return([]*models.Download{{ID: "b"}, {ID: "a"}}, nil)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
}
