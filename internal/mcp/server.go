package mcp

import (
	"github.com/Togather-Foundation/eventcal/internal/audit"
	"github.com/Togather-Foundation/eventcal/internal/domain/events"
	"github.com/Togather-Foundation/eventcal/internal/mcp/resources"
	"github.com/Togather-Foundation/eventcal/internal/mcp/tools"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// Server wraps the MCP server with the events service.
type Server struct {
	mcp           *mcpserver.MCPServer
	eventsService *events.Service
	audit         *audit.Logger
	host          string
}

type Config struct {
	Name    string
	Version string
	// Host names the calendar in feed UIDs.
	Host string
	// Logger receives the audit trail of tool calls that change events.
	Logger zerolog.Logger
}

// NewServer creates an MCP server exposing the event tools and the
// calendar feed resource.
//
//	srv := mcp.NewServer(mcp.Config{Name: "eventcal", Version: Version}, service)
//	err := mcp.Serve(ctx, srv.MCPServer(), transportCfg)
func NewServer(cfg Config, eventsService *events.Service) *Server {
	mcpServer := mcpserver.NewMCPServer(
		cfg.Name,
		cfg.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithResourceCapabilities(false, false),
		mcpserver.WithRecovery(),
		mcpserver.WithInstructions("Event calendar: list, create, fetch and delete dated events"),
	)

	srv := &Server{
		mcp:           mcpServer,
		eventsService: eventsService,
		audit:         audit.NewLogger(cfg.Logger),
		host:          cfg.Host,
	}
	srv.registerTools()
	srv.registerResources()
	return srv
}

// MCPServer returns the underlying MCP server for use with transports.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

func (s *Server) registerTools() {
	eventTools := tools.NewEventTools(s.eventsService, s.audit)
	s.mcp.AddTool(eventTools.ListEventsTool(), eventTools.ListEventsHandler)
	s.mcp.AddTool(eventTools.ListTodayEventsTool(), eventTools.ListTodayEventsHandler)
	s.mcp.AddTool(eventTools.CreateEventTool(), eventTools.CreateEventHandler)
	s.mcp.AddTool(eventTools.GetEventTool(), eventTools.GetEventHandler)
	s.mcp.AddTool(eventTools.DeleteEventTool(), eventTools.DeleteEventHandler)
}

func (s *Server) registerResources() {
	calendar := resources.NewCalendarResources(s.eventsService, s.host)
	s.mcp.AddResource(calendar.Resource(), calendar.ReadHandler)
}
