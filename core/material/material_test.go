package material_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/material"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/tests"
)

func Test_service(t *testing.T) {
	app := testutil.NewApp()
	ctx := context.Background()
	svc := app.MaterialSvc

	uploader := testutil.CreateUser(t, app.UsrRepo, "Uploader", "uploader@test.cd", "", user.RoleTeacher, user.StatusActive)
	other := testutil.CreateUser(t, app.UsrRepo, "Other", "other@test.cd", "", user.RoleTeacher, user.StatusActive)
	alice := testutil.CreateStudent(t, app.UsrRepo, "Alice", "alice@test.cd", "cse", 2)
	carl := testutil.CreateStudent(t, app.UsrRepo, "Carl", "carl@test.cd", "cse", 3)

	notes, err := svc.Create(ctx, uploader.ID, material.NewMaterial{
		Title: "Graph notes", FileURL: "https://files.test.cd/graphs.pdf", Branch: "cse", Year: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, uploader.ID, notes.UploadedBy)

	_, err = svc.Create(ctx, other.ID, material.NewMaterial{
		Title: "Compilers", FileURL: "https://files.test.cd/compilers.pdf", Branch: "cse", Year: 3,
	})
	require.NoError(t, err)

	visible, err := svc.QueryForStudent(ctx, alice)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, notes.ID, visible[0].ID)

	visible, err = svc.QueryForStudent(ctx, carl)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "Compilers", visible[0].Title)

	visible, err = svc.QueryForStudent(ctx, user.User{Role: user.RoleStudent})
	require.NoError(t, err)
	assert.Empty(t, visible)

	mine, err := svc.QueryByUploader(ctx, uploader.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	t.Run("delete", func(t *testing.T) {
		assert.True(t, core.IsPermissionDenied(svc.Delete(ctx, other.ID, notes.ID)))
		require.NoError(t, svc.Delete(ctx, uploader.ID, notes.ID))
		assert.True(t, core.IsNotFound(svc.Delete(ctx, uploader.ID, notes.ID)))
	})
}
