// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.SessionConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := types.NewResearchRecord()
	rec.Title = "Quantum Repeaters"
	rec.Outline["intro"] = types.OutlineSection{Title: "Introduction", Description: "scene"}
	rec.Sources["https://example.com/a"] = types.Source{URL: "https://example.com/a", Title: "A", Provider: "tavily"}
	rec.Sections = []types.Section{{Index: 0, Title: "Introduction", Content: "body"}}
	rec.Conversation = []types.Message{
		types.HumanMessage("research quantum repeaters"),
		{Role: types.RoleAssistant, Content: "on it"},
	}
	rec.Proposal = &types.Proposal{
		Sections: map[string]types.ProposalSection{"intro": {Title: "Introduction", Approved: true}},
		Approved: true,
	}

	id := NewSessionID()
	require.NoError(t, s.Save(ctx, id, rec))

	loaded, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Quantum Repeaters", loaded.Title)
	assert.Equal(t, rec.Outline, loaded.Outline)
	assert.Equal(t, rec.Sources, loaded.Sources)
	assert.Equal(t, rec.Sections, loaded.Sections)
	assert.Len(t, loaded.Conversation, 2)
	require.NotNil(t, loaded.Proposal)
	assert.True(t, loaded.Proposal.Approved)
}

func TestSaveUpsertsExistingSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := NewSessionID()
	rec := types.NewResearchRecord()
	rec.Title = "v1"
	require.NoError(t, s.Save(ctx, id, rec))

	rec.Title = "v2"
	require.NoError(t, s.Save(ctx, id, rec))

	loaded, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "v2", loaded.Title)

	infos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "v2", infos[0].Title)
}

func TestLoadMissingSession(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load(context.Background(), "nope")
	assert.Error(t, err)
}

func TestLoadRestoresNilMaps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// A record that never touched outline or sources still loads usable maps.
	id := NewSessionID()
	require.NoError(t, s.Save(ctx, id, &types.ResearchRecord{Title: "bare"}))

	loaded, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, loaded.Outline)
	assert.NotNil(t, loaded.Sources)
}

func TestListOrdersByRecency(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := NewSessionID()
	second := NewSessionID()
	require.NoError(t, s.Save(ctx, first, &types.ResearchRecord{Title: "first"}))
	require.NoError(t, s.Save(ctx, second, &types.ResearchRecord{Title: "second"}))
	// Touch the first session again so it becomes the most recent.
	require.NoError(t, s.Save(ctx, first, &types.ResearchRecord{Title: "first touched"}))

	infos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, first, infos[0].ID)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := NewSessionID()
	require.NoError(t, s.Save(ctx, id, types.NewResearchRecord()))
	require.NoError(t, s.Delete(ctx, id))

	_, err := s.Load(ctx, id)
	assert.Error(t, err)
	assert.Error(t, s.Delete(ctx, id))
}
