package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/tollgate/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for tollgate resources.
	uriScheme = "tollgate://"

	// journalLimit caps the entries returned by the journal resources.
	journalLimit = 100
)

// registerResources registers the journal resources when a journal is set.
func (s *Server) registerResources() {
	if s.ports.Journal == nil {
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "journal",
		Name:        "journal",
		Description: "Most recent licence operations, newest first",
		MIMEType:    "application/json",
	}, s.handleJournalResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "journal/{subjectId}",
		Name:        "subject-journal",
		Description: "Licence operations about one subject or token",
		MIMEType:    "application/json",
	}, s.handleSubjectJournalResource)
}

// journalInfo is the JSON shape of one journal entry.
type journalInfo struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	ActorID   string `json:"actor_id,omitempty"`
	SubjectID string `json:"subject_id,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	Detail    string `json:"detail,omitempty"`
	At        string `json:"at"`
}

// handleJournalResource returns the most recent journal entries.
func (s *Server) handleJournalResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	entries, err := s.ports.Journal.Recent(ctx, journalLimit)
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return journalResult(req.Params.URI, entries)
}

// handleSubjectJournalResource returns journal entries for one subject.
func (s *Server) handleSubjectJournalResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	subjectID := extractSubjectID(req.Params.URI)
	if subjectID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	entries, err := s.ports.Journal.BySubject(ctx, subjectID, journalLimit)
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return journalResult(req.Params.URI, entries)
}

func journalResult(uri string, entries []domain.JournalEntry) (*mcp.ReadResourceResult, error) {
	infos := make([]journalInfo, len(entries))
	for i, e := range entries {
		infos[i] = journalInfo{
			ID:        e.ID,
			Action:    string(e.Action),
			ActorID:   e.ActorID,
			SubjectID: e.SubjectID,
			Amount:    e.Amount,
			Detail:    e.Detail,
			At:        e.At.UTC().Format(time.RFC3339),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling journal: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSubjectID extracts the subject from a URI like tollgate://journal/{subjectId}.
func extractSubjectID(uri string) string {
	const prefix = uriScheme + "journal/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
