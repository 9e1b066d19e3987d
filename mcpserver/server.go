package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zapmercado/order-bridge/internal/biz/domain"
	"github.com/zapmercado/order-bridge/internal/biz/usecase"
)

// OpsServer exposes operational inspection tools over MCP so an
// attendant's agent can look at live order state and manage human
// takeover.
type OpsServer struct {
	server      *mcp.Server
	sessions    *usecase.SessionUsecase
	carts       *usecase.CartUsecase
	buffer      *usecase.BufferUsecase
	breaker     *usecase.BreakerUsecase
	cooldown    *usecase.CooldownUsecase
	suggestions *usecase.SuggestionsUsecase
}

// NewServer creates the ops MCP server and registers its tools.
func NewServer(
	sessions *usecase.SessionUsecase,
	carts *usecase.CartUsecase,
	buffer *usecase.BufferUsecase,
	breaker *usecase.BreakerUsecase,
	cooldown *usecase.CooldownUsecase,
	suggestions *usecase.SuggestionsUsecase,
) *OpsServer {
	s := &OpsServer{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "order-bridge-ops",
			Version: "v1.0.0",
		}, nil),
		sessions:    sessions,
		carts:       carts,
		buffer:      buffer,
		breaker:     breaker,
		cooldown:    cooldown,
		suggestions: suggestions,
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until the context ends.
func (s *OpsServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *OpsServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "inspect_session",
		Description: "Show the customer's order session status, start time, and order ID if sent.",
	}, s.handleInspectSession)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "inspect_cart",
		Description: "List the customer's cart items and subtotal.",
	}, s.handleInspectCart)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "inspect_buffer",
		Description: "Show how many message fragments are waiting in the customer's debounce buffer.",
	}, s.handleInspectBuffer)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "inspect_suggestions",
		Description: "List the product suggestions recently shown to the customer.",
	}, s.handleInspectSuggestions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "breaker_status",
		Description: "Check whether the circuit breaker for a backend service is open.",
	}, s.handleBreakerStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "takeover",
		Description: "Silence the automated responder for a customer so a human can take over.",
	}, s.handleTakeover)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "release_takeover",
		Description: "Re-enable the automated responder for a customer.",
	}, s.handleReleaseTakeover)
}

// CustomerInput identifies a customer by phone or handle.
type CustomerInput struct {
	Customer string `json:"customer" jsonschema:"description=The customer phone number or handle"`
}

// SessionOutput describes a session for inspection.
type SessionOutput struct {
	Active  bool   `json:"active"`
	Status  string `json:"status,omitempty"`
	OrderID string `json:"order_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *OpsServer) handleInspectSession(ctx context.Context, _ *mcp.CallToolRequest, input CustomerInput) (*mcp.CallToolResult, SessionOutput, error) {
	session, err := s.sessions.Get(ctx, domain.NormalizeCustomer(input.Customer))
	if err != nil {
		return nil, SessionOutput{Error: err.Error()}, nil
	}
	if session == nil {
		return nil, SessionOutput{Active: false}, nil
	}
	return nil, SessionOutput{Active: true, Status: string(session.Status), OrderID: session.OrderID}, nil
}

// CartOutput lists cart contents for inspection.
type CartOutput struct {
	Items    domain.Cart `json:"items"`
	Subtotal float64     `json:"subtotal"`
	Error    string      `json:"error,omitempty"`
}

func (s *OpsServer) handleInspectCart(ctx context.Context, _ *mcp.CallToolRequest, input CustomerInput) (*mcp.CallToolResult, CartOutput, error) {
	cart, err := s.carts.View(ctx, domain.NormalizeCustomer(input.Customer))
	if err != nil {
		return nil, CartOutput{Error: err.Error()}, nil
	}
	return nil, CartOutput{Items: cart, Subtotal: cart.Subtotal()}, nil
}

// BufferOutput reports pending fragments.
type BufferOutput struct {
	Pending int64  `json:"pending"`
	Error   string `json:"error,omitempty"`
}

func (s *OpsServer) handleInspectBuffer(ctx context.Context, _ *mcp.CallToolRequest, input CustomerInput) (*mcp.CallToolResult, BufferOutput, error) {
	n, err := s.buffer.Len(ctx, domain.NormalizeCustomer(input.Customer))
	if err != nil {
		return nil, BufferOutput{Error: err.Error()}, nil
	}
	return nil, BufferOutput{Pending: n}, nil
}

// SuggestionsOutput lists cached suggestions.
type SuggestionsOutput struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
	Error       string              `json:"error,omitempty"`
}

func (s *OpsServer) handleInspectSuggestions(ctx context.Context, _ *mcp.CallToolRequest, input CustomerInput) (*mcp.CallToolResult, SuggestionsOutput, error) {
	suggestions, err := s.suggestions.Get(ctx, domain.NormalizeCustomer(input.Customer))
	if err != nil {
		return nil, SuggestionsOutput{Error: err.Error()}, nil
	}
	return nil, SuggestionsOutput{Suggestions: suggestions}, nil
}

// BreakerInput names a backend service.
type BreakerInput struct {
	Service string `json:"service" jsonschema:"description=The backend service name, e.g. stock"`
}

// BreakerOutput reports breaker state.
type BreakerOutput struct {
	Open  bool   `json:"open"`
	Error string `json:"error,omitempty"`
}

func (s *OpsServer) handleBreakerStatus(ctx context.Context, _ *mcp.CallToolRequest, input BreakerInput) (*mcp.CallToolResult, BreakerOutput, error) {
	allowed, err := s.breaker.Allow(ctx, input.Service)
	if err != nil {
		return nil, BreakerOutput{Error: err.Error()}, nil
	}
	return nil, BreakerOutput{Open: !allowed}, nil
}

// TakeoverOutput reports the takeover change.
type TakeoverOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (s *OpsServer) handleTakeover(ctx context.Context, _ *mcp.CallToolRequest, input CustomerInput) (*mcp.CallToolResult, TakeoverOutput, error) {
	if err := s.cooldown.Activate(ctx, domain.NormalizeCustomer(input.Customer)); err != nil {
		return nil, TakeoverOutput{Error: err.Error()}, nil
	}
	return nil, TakeoverOutput{Success: true}, nil
}

func (s *OpsServer) handleReleaseTakeover(ctx context.Context, _ *mcp.CallToolRequest, input CustomerInput) (*mcp.CallToolResult, TakeoverOutput, error) {
	if err := s.cooldown.Deactivate(ctx, domain.NormalizeCustomer(input.Customer)); err != nil {
		return nil, TakeoverOutput{Error: err.Error()}, nil
	}
	return nil, TakeoverOutput{Success: true}, nil
}
