package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
)

func TestEditDraft(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := EditDraft(env, laundry.GarmentPatch{Color: stringPtr("red")})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "no draft")

	env.Draft.Set(laundry.DraftPatch{
		GarmentPatch:       laundry.GarmentPatch{Type: stringPtr("shirt"), Materials: []string{"cotton", "silk"}},
		DidConfirmAnalysis: boolPtr(true),
	})

	_, err = EditDraft(env, laundry.GarmentPatch{})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "empty patch")

	d, err := EditDraft(env, laundry.GarmentPatch{Color: stringPtr("red"), Materials: []string{}})
	require.NoError(t, err)
	assert.Equal(t, "shirt", d.Type)
	assert.Equal(t, "red", d.Color)
	assert.Equal(t, []string{}, d.Materials)
	assert.False(t, d.DidConfirmAnalysis, "editing withdraws confirmation")
}

func TestEditDraft_RejectsBadImage(t *testing.T) {
	env := newTestEnv(t, nil)
	env.Draft.Set(laundry.DraftPatch{GarmentPatch: laundry.GarmentPatch{Type: stringPtr("shirt")}})

	bad := laundry.Image{Format: "gif", Data: "eA=="}
	_, err := EditDraft(env, laundry.GarmentPatch{Image: &laundry.ImagePatch{Clothes: &bad}})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	assert.Nil(t, env.Draft.Get().Image.Clothes)
}

func TestConfirmDraft(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := ConfirmDraft(env)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "no draft")

	env.Draft.Set(laundry.DraftPatch{GarmentPatch: laundry.GarmentPatch{HasPrintOrTrims: boolPtr(true)}})
	_, err = ConfirmDraft(env)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "no signal")

	env.Draft.Set(laundry.DraftPatch{GarmentPatch: laundry.GarmentPatch{Color: stringPtr("black")}})
	d, err := ConfirmDraft(env)
	require.NoError(t, err)
	assert.True(t, d.DidConfirmAnalysis)
}

func TestCancelDraft(t *testing.T) {
	env := newTestEnv(t, nil)

	assert.False(t, CancelDraft(env))

	env.Draft.Set(laundry.DraftPatch{GarmentPatch: laundry.GarmentPatch{Type: stringPtr("shirt")}})
	assert.True(t, CancelDraft(env))
	assert.Nil(t, GetDraft(env))
}

func TestEditDraft_AfterCancelDoesNotRestart(t *testing.T) {
	env := newTestEnv(t, nil)
	env.Draft.Set(laundry.DraftPatch{GarmentPatch: laundry.GarmentPatch{Type: stringPtr("shirt")}})
	require.True(t, CancelDraft(env))

	_, err := EditDraft(env, laundry.GarmentPatch{Color: stringPtr("red")})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	assert.Nil(t, GetDraft(env))
}
