// Package opcua publishes generator status on an OPC UA server so plant
// historians can watch run activity next to their equipment tags.
package opcua

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/awcullen/opcua/server"
	"github.com/awcullen/opcua/ua"
	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/apr-datagen/internal/runs"
)

const (
	namespace      uint16 = 2
	folderName            = "Generator"
	applicationURN        = "apr-datagen:generator"
)

// Node names under the Generator folder.
const (
	NodeLastRunID      = "LastRunId"
	NodeLastRunStatus  = "LastRunStatus"
	NodeLastRunPeriod  = "LastRunPeriod"
	NodeLastRunRecords = "LastRunRecords"
	NodeRunsCompleted  = "RunsCompleted"
	NodeRunsFailed     = "RunsFailed"
	NodeJobsInFlight   = "JobsInFlight"
	NodeTodayScenario  = "TodayScenario"
)

type nodeDef struct {
	name        string
	displayName string
	description string
	dataType    ua.NodeID
	initial     any
}

var statusNodes = []nodeDef{
	{NodeLastRunID, "Last Run ID", "Id of the most recently finished run", ua.DataTypeIDString, ""},
	{NodeLastRunStatus, "Last Run Status", "succeeded or failed", ua.DataTypeIDString, ""},
	{NodeLastRunPeriod, "Last Run Period", "Period prefix of the last run", ua.DataTypeIDString, ""},
	{NodeLastRunRecords, "Last Run Records", "Rows generated by the last run", ua.DataTypeIDInt32, int32(0)},
	{NodeRunsCompleted, "Runs Completed", "Succeeded runs in the ledger", ua.DataTypeIDInt32, int32(0)},
	{NodeRunsFailed, "Runs Failed", "Failed runs in the ledger", ua.DataTypeIDInt32, int32(0)},
	{NodeJobsInFlight, "Jobs In Flight", "Queued or running jobs", ua.DataTypeIDInt32, int32(0)},
	{NodeTodayScenario, "Today Scenario", "Active anomaly scenario for today", ua.DataTypeIDString, ""},
}

// Server wraps the OPC UA server. Without a running server it keeps the
// values in memory so the rest of the service is unaffected.
type Server struct {
	srv     *server.Server
	port    int
	appName string
	pkiDir  string

	mu        sync.RWMutex
	varNodes  map[string]*server.VariableNode
	values    map[string]any
	completed int32
	failed    int32
}

// NewServer creates a server for port. Certificates live under pkiDir.
func NewServer(port int, appName, pkiDir string) *Server {
	s := &Server{
		port:     port,
		appName:  appName,
		pkiDir:   pkiDir,
		varNodes: make(map[string]*server.VariableNode),
		values:   make(map[string]any, len(statusNodes)),
	}
	for _, def := range statusNodes {
		s.values[def.name] = def.initial
	}
	return s
}

// Start creates the address space and serves in the background. Failures
// leave the server in value storage mode and are only logged.
func (s *Server) Start(ctx context.Context) error {
	endpoint := fmt.Sprintf("opc.tcp://0.0.0.0:%d", s.port)
	log.Info().
		Int("port", s.port).
		Str("endpoint", endpoint).
		Msg("Starting OPC UA server")

	certPath, keyPath, err := ensurePKI(s.pkiDir, s.appName)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create PKI - OPC UA server disabled")
		return nil
	}

	var srv *server.Server
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Warn().Interface("panic", r).Msg("OPC UA server creation panicked - running in value storage mode only")
			}
		}()
		srv, err = server.New(
			ua.ApplicationDescription{
				ApplicationURI:  "urn:" + applicationURN,
				ProductURI:      "urn:apr-datagen",
				ApplicationName: ua.LocalizedText{Text: "APR Data Generator", Locale: "en"},
				ApplicationType: ua.ApplicationTypeServer,
			},
			certPath,
			keyPath,
			endpoint,
			server.WithAnonymousIdentity(true),
			server.WithSecurityPolicyNone(true),
			server.WithInsecureSkipVerify(),
		)
		if err != nil {
			log.Warn().Err(err).Msg("OPC UA server creation failed - running in value storage mode only")
			srv = nil
		}
	}()
	if srv == nil {
		return nil
	}

	s.mu.Lock()
	s.srv = srv
	s.registerNodes()
	s.mu.Unlock()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("OPC UA server panic")
			}
		}()
		if err := srv.ListenAndServe(); err != nil {
			log.Error().Err(err).Msg("OPC UA server error")
		}
	}()

	log.Info().Msg("OPC UA server started successfully")
	return nil
}

// Stop closes the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.RLock()
	srv := s.srv
	s.mu.RUnlock()
	if srv != nil {
		return srv.Close()
	}
	return nil
}

// Running reports whether the OPC UA endpoint is serving.
func (s *Server) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.srv != nil
}

// registerNodes adds the Generator folder and its variables. Caller holds mu.
func (s *Server) registerNodes() {
	nm := s.srv.NamespaceManager()
	folderID := ua.NodeIDString{NamespaceIndex: namespace, ID: folderName}

	folder := server.NewObjectNode(
		s.srv,
		folderID,
		ua.QualifiedName{NamespaceIndex: namespace, Name: folderName},
		ua.LocalizedText{Text: folderName},
		ua.LocalizedText{Text: "APR data generator status"},
		nil,
		[]ua.Reference{
			{
				ReferenceTypeID: ua.ReferenceTypeIDOrganizes,
				IsInverse:       true,
				TargetID:        ua.ExpandedNodeID{NodeID: ua.ObjectIDObjectsFolder},
			},
		},
		0,
	)
	nm.AddNode(folder)

	now := time.Now().UTC()
	for _, def := range statusNodes {
		varNode := server.NewVariableNode(
			s.srv,
			ua.NodeIDString{NamespaceIndex: namespace, ID: folderName + "." + def.name},
			ua.QualifiedName{NamespaceIndex: namespace, Name: def.name},
			ua.LocalizedText{Text: def.displayName},
			ua.LocalizedText{Text: def.description},
			nil,
			[]ua.Reference{
				{
					ReferenceTypeID: ua.ReferenceTypeIDHasComponent,
					IsInverse:       true,
					TargetID:        ua.ExpandedNodeID{NodeID: folderID},
				},
			},
			ua.NewDataValue(s.values[def.name], 0, now, 0, now, 0),
			def.dataType,
			ua.ValueRankScalar,
			[]uint32{},
			ua.AccessLevelsCurrentRead,
			250.0,
			false,
			nil,
		)
		nm.AddNode(varNode)
		s.varNodes[def.name] = varNode
	}

	log.Info().
		Uint16("namespace", namespace).
		Str("folder", folderName).
		Int("nodes", len(statusNodes)).
		Msg("Registered OPC UA namespace")
}

// update stores values and pushes them to live nodes. Caller holds mu.
func (s *Server) update(values map[string]any) {
	now := time.Now().UTC()
	for name, value := range values {
		s.values[name] = value
		if varNode, ok := s.varNodes[name]; ok {
			varNode.SetValue(ua.NewDataValue(value, 0, now, 0, now, 0))
		}
	}
}

// PublishRun mirrors a finished run.
func (s *Server) PublishRun(run runs.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch run.Status {
	case runs.StatusSucceeded:
		s.completed++
	case runs.StatusFailed:
		s.failed++
	}
	s.update(map[string]any{
		NodeLastRunID:      run.ID,
		NodeLastRunStatus:  string(run.Status),
		NodeLastRunPeriod:  run.Prefix,
		NodeLastRunRecords: int32(run.Records),
		NodeRunsCompleted:  s.completed,
		NodeRunsFailed:     s.failed,
	})
}

// SeedCounters restores the run totals, e.g. from the run ledger at startup.
func (s *Server) SeedCounters(completed, failed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = int32(completed)
	s.failed = int32(failed)
	s.update(map[string]any{
		NodeRunsCompleted: s.completed,
		NodeRunsFailed:    s.failed,
	})
}

// PublishJobsInFlight updates the queue depth.
func (s *Server) PublishJobsInFlight(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.update(map[string]any{NodeJobsInFlight: int32(n)})
}

// PublishScenario sets today's scenario label.
func (s *Server) PublishScenario(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.update(map[string]any{NodeTodayScenario: label})
}

// Value returns the current value of a node.
func (s *Server) Value(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Values returns a copy of all node values.
func (s *Server) Values() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
