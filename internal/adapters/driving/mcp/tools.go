package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/tollgate/internal/core/domain"
)

// IssueLicenseInput is the input schema for the issue_license tool.
type IssueLicenseInput struct {
	CallerID string `json:"caller_id" jsonschema:"the operator issuing the licence"`
	Amount   int64  `json:"amount" jsonschema:"how many units the licence lasts"`
	Unit     string `json:"unit" jsonschema:"hour, day or week"`
}

// IssueLicenseOutput is the output schema for the issue_license tool.
type IssueLicenseOutput struct {
	Token           string `json:"token"`
	Plan            string `json:"plan"`
	DurationSeconds int64  `json:"duration_seconds"`
	Price           int64  `json:"price"`
	Balance         string `json:"balance"`
}

// RedeemLicenseInput is the input schema for the redeem_license tool.
type RedeemLicenseInput struct {
	CallerID string `json:"caller_id" jsonschema:"the subject redeeming the token"`
	Token    string `json:"token" jsonschema:"the licence token to redeem"`
}

// GrantOutput describes one access grant.
type GrantOutput struct {
	SubjectID        string `json:"subject_id"`
	Plan             string `json:"plan"`
	ValidUntil       string `json:"valid_until"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

// CheckAccessInput is the input schema for the check_access tool.
type CheckAccessInput struct {
	CallerID  string `json:"caller_id" jsonschema:"the caller asking"`
	SubjectID string `json:"subject_id,omitempty" jsonschema:"the subject to check (default: the caller)"`
}

// CheckAccessOutput is the output schema for the check_access tool.
type CheckAccessOutput struct {
	SubjectID  string `json:"subject_id"`
	Authorized bool   `json:"authorized"`
}

// CallerInput is the input schema for tools that only need the caller.
type CallerInput struct {
	CallerID string `json:"caller_id" jsonschema:"the caller making the request"`
}

// ListGrantsOutput is the output schema for the list_grants tool.
type ListGrantsOutput struct {
	Grants []GrantOutput `json:"grants"`
	Count  int           `json:"count"`
}

// RevokeGrantInput is the input schema for the revoke_grant tool.
type RevokeGrantInput struct {
	CallerID  string `json:"caller_id" jsonschema:"the operator revoking access"`
	SubjectID string `json:"subject_id" jsonschema:"the subject whose grant is removed"`
}

// RevokeGrantOutput is the output schema for the revoke_grant tool.
type RevokeGrantOutput struct {
	SubjectID string `json:"subject_id"`
	Revoked   bool   `json:"revoked"`
}

// BalanceOutput is the output schema for the operator_balance tool.
type BalanceOutput struct {
	Credits   int64  `json:"credits"`
	Unlimited bool   `json:"unlimited"`
	Display   string `json:"display"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "issue_license",
		Description: "Charge an operator and mint a single-use licence token",
	}, s.handleIssueLicense)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "redeem_license",
		Description: "Redeem a licence token, creating or extending the caller's access",
	}, s.handleRedeemLicense)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "check_access",
		Description: "Check whether a subject currently has access",
	}, s.handleCheckAccess)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_grants",
		Description: "List all active access grants (privileged callers only)",
	}, s.handleListGrants)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "revoke_grant",
		Description: "Remove a subject's access immediately (operators only)",
	}, s.handleRevokeGrant)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "operator_balance",
		Description: "Show the caller's credit balance (operators only)",
	}, s.handleOperatorBalance)
}

func (s *Server) handleIssueLicense(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IssueLicenseInput,
) (*mcp.CallToolResult, IssueLicenseOutput, error) {
	res, err := s.ports.Access.IssueLicense(ctx, input.CallerID, input.Amount, input.Unit)
	if err != nil {
		return nil, IssueLicenseOutput{}, err
	}
	return nil, IssueLicenseOutput{
		Token:           res.Token.Token,
		Plan:            res.Token.Plan,
		DurationSeconds: int64(res.Token.Duration / time.Second),
		Price:           res.Price,
		Balance:         res.Remaining.String(),
	}, nil
}

func (s *Server) handleRedeemLicense(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RedeemLicenseInput,
) (*mcp.CallToolResult, GrantOutput, error) {
	grant, err := s.ports.Access.RedeemLicense(ctx, input.CallerID, input.Token)
	if err != nil {
		return nil, GrantOutput{}, err
	}
	return nil, s.grantOutput(*grant), nil
}

func (s *Server) handleCheckAccess(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CheckAccessInput,
) (*mcp.CallToolResult, CheckAccessOutput, error) {
	subject := input.SubjectID
	if subject == "" {
		subject = input.CallerID
	}
	ok, err := s.ports.Access.IsAuthorized(ctx, subject, s.now())
	if err != nil {
		return nil, CheckAccessOutput{}, err
	}
	return nil, CheckAccessOutput{SubjectID: subject, Authorized: ok}, nil
}

func (s *Server) handleListGrants(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CallerInput,
) (*mcp.CallToolResult, ListGrantsOutput, error) {
	grants, err := s.ports.Access.ListActiveGrants(ctx, input.CallerID)
	if err != nil {
		return nil, ListGrantsOutput{}, err
	}

	output := ListGrantsOutput{
		Grants: make([]GrantOutput, len(grants)),
		Count:  len(grants),
	}
	for i := range grants {
		output.Grants[i] = s.grantOutput(grants[i])
	}
	return nil, output, nil
}

func (s *Server) handleRevokeGrant(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RevokeGrantInput,
) (*mcp.CallToolResult, RevokeGrantOutput, error) {
	if err := s.ports.Access.Revoke(ctx, input.CallerID, input.SubjectID); err != nil {
		return nil, RevokeGrantOutput{}, err
	}
	return nil, RevokeGrantOutput{SubjectID: input.SubjectID, Revoked: true}, nil
}

func (s *Server) handleOperatorBalance(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CallerInput,
) (*mcp.CallToolResult, BalanceOutput, error) {
	bal, err := s.ports.Access.Balance(ctx, input.CallerID)
	if err != nil {
		return nil, BalanceOutput{}, err
	}
	return nil, BalanceOutput{
		Credits:   bal.Credits,
		Unlimited: bal.Unlimited,
		Display:   bal.String(),
	}, nil
}

func (s *Server) grantOutput(g domain.AccessGrant) GrantOutput {
	return GrantOutput{
		SubjectID:        g.SubjectID,
		Plan:             g.Plan,
		ValidUntil:       g.ValidUntil.UTC().Format(time.RFC3339),
		RemainingSeconds: int64(g.Remaining(s.now()) / time.Second),
	}
}
