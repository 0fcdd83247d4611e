package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

func testFileSettings() domain.FileSettings {
	return domain.FileSettings{
		Backend:        domain.FileBackendDrive,
		MaxUploadBytes: 16,
		Folders: []domain.FolderSpec{
			{Key: "photos", Title: "Site Photos", FolderID: "f-photos", ViewPermission: domain.PermViewFiles, UploadPermission: domain.PermUploadFiles},
			{Key: "invoices", Title: "Invoices", FolderID: "f-inv", ViewPermission: domain.PermViewPO, UploadPermission: domain.PermEditPO},
		},
	}
}

func TestFileService_Folders(t *testing.T) {
	svc := NewFileService(newMockFileGateway(), testFileSettings())

	assert.Len(t, svc.Folders(principalWith(domain.RoleViewer)), 2)

	limited := principalWith(domain.RoleViewer)
	limited.Permissions = []domain.Permission{domain.PermViewFiles}
	folders := svc.Folders(limited)
	require.Len(t, folders, 1)
	assert.Equal(t, "photos", folders[0].Key)
}

func TestFileService_List_SortedNewestFirst(t *testing.T) {
	gw := newMockFileGateway()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	gw.files["f-photos"] = []domain.DriveFile{
		{ID: "1", Name: "old.jpg", CreatedAt: base},
		{ID: "2", Name: "b.jpg", CreatedAt: base.Add(time.Hour)},
		{ID: "3", Name: "a.jpg", CreatedAt: base.Add(time.Hour)},
	}
	svc := NewFileService(gw, testFileSettings())

	files, err := svc.List(context.Background(), principalWith(domain.RoleViewer), "photos")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, []string{"a.jpg", "b.jpg", "old.jpg"}, []string{files[0].Name, files[1].Name, files[2].Name})
}

func TestFileService_List_Errors(t *testing.T) {
	ctx := context.Background()
	gw := newMockFileGateway()
	svc := NewFileService(gw, testFileSettings())

	_, err := svc.List(ctx, principalWith(domain.RoleViewer), "secret")
	assert.ErrorIs(t, err, domain.ErrUnknownFolder)

	noPerms := principalWith(domain.RoleViewer)
	noPerms.Permissions = nil
	_, err = svc.List(ctx, noPerms, "photos")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	gw.err = domain.ErrRateLimited
	_, err = svc.List(ctx, principalWith(domain.RoleViewer), "photos")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestFileService_Upload(t *testing.T) {
	ctx := context.Background()
	gw := newMockFileGateway()
	svc := NewFileService(gw, testFileSettings())

	file, err := svc.Upload(ctx, principalWith(domain.RoleEngineer), "photos", "../site/a:b.txt", "", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "a_b.txt", file.Name)

	require.Len(t, gw.uploads, 1)
	up := gw.uploads[0]
	assert.Equal(t, "f-photos", up.FolderID)
	assert.Equal(t, "text/plain; charset=utf-8", up.MimeType)

	_, err = svc.Upload(ctx, principalWith(domain.RoleEngineer), "photos", "x.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", gw.uploads[1].MimeType)
}

func TestFileService_Upload_Rejections(t *testing.T) {
	ctx := context.Background()
	gw := newMockFileGateway()
	svc := NewFileService(gw, testFileSettings())
	engineer := principalWith(domain.RoleEngineer)

	_, err := svc.Upload(ctx, engineer, "photos", "empty.txt", "", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Upload(ctx, engineer, "photos", "big.bin", "", make([]byte, 17))
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	// Engineers may view invoices but not upload to them.
	_, err = svc.Upload(ctx, engineer, "invoices", "inv.pdf", "", []byte("%PDF"))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	gw.err = errors.New("script error")
	_, err = svc.Upload(ctx, engineer, "photos", "a.txt", "", []byte("x"))
	assert.Error(t, err)

	assert.Empty(t, gw.uploads)
}
