package docview

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"log"
	"sync"
	"sync/atomic"

	"github.com/complyon/docview/internal/engine"
	"github.com/complyon/docview/internal/highlight"
	"github.com/complyon/docview/internal/textlayer"
	"github.com/complyon/docview/internal/viewport"
)

// Service orchestrates viewer sessions. Each open document gets its own
// viewport controller; sessions are independent and safe to drive
// concurrently.
type Service struct {
	factory   *engine.Factory
	resolver  *Resolver
	validator *Validator
	matcher   *highlight.Matcher
	logger    *log.Logger

	mu       sync.Mutex
	sessions map[string]*session
	nextID   atomic.Uint64
}

type session struct {
	id         string
	controller *viewport.Controller
}

// NewService wires the service from its collaborators. The matcher and
// logger may be nil.
func NewService(factory *engine.Factory, resolver *Resolver, validator *Validator,
	matcher *highlight.Matcher, logger *log.Logger,
) *Service {
	if matcher == nil {
		matcher = highlight.NewMatcher()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		factory:   factory,
		resolver:  resolver,
		validator: validator,
		matcher:   matcher,
		logger:    logger,
		sessions:  make(map[string]*session),
	}
}

// DocOpen resolves a source, validates local files, and opens a viewer
// session with its initial page rendered.
func (s *Service) DocOpen(ctx context.Context, req DocOpenRequest) (*DocOpenResult, error) {
	src, err := s.resolver.Resolve(ctx, req.Source)
	if err != nil {
		return nil, fmt.Errorf("resolve source: %w", err)
	}
	if src.Path != "" {
		if err := statLocal(src.Path); err != nil {
			return nil, err
		}
		if !s.validator.IsValidPDF(src.Path) {
			result, _ := s.validator.ValidateFile(DocValidateRequest{Path: src.Path})
			return nil, fmt.Errorf("document failed validation: %s", result.Message)
		}
	}

	eng, err := s.factory.Engine(engine.TypeAuto)
	if err != nil {
		return nil, fmt.Errorf("acquire engine: %w", err)
	}

	ctrl := viewport.NewController(eng, s.matcher, viewport.Callbacks{}, s.logger)
	initialPage := req.InitialPage
	if initialPage < 1 {
		initialPage = 1
	}
	if err := ctrl.LoadDocument(ctx, src, initialPage); err != nil {
		ctrl.Close()
		return nil, err
	}

	sess := &session{
		id:         fmt.Sprintf("doc-%d", s.nextID.Add(1)),
		controller: ctrl,
	}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Printf("opened session %s for %s (%d pages)",
		sess.id, req.Source, ctrl.Snapshot().PageCount)

	return &DocOpenResult{
		SessionID: sess.id,
		Viewport:  s.viewportOf(ctrl),
	}, nil
}

// DocRenderPage renders a page of an open session and returns the surface as
// base64-encoded PNG.
func (s *Service) DocRenderPage(ctx context.Context, req DocRenderPageRequest) (*DocRenderPageResult, error) {
	sess, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}

	zoomIndex := sess.controller.Snapshot().ZoomIndex
	if req.ZoomIndex != nil {
		zoomIndex = *req.ZoomIndex
	}
	if err := sess.controller.RenderPage(ctx, req.Page, zoomIndex); err != nil {
		return nil, err
	}

	result := &DocRenderPageResult{Viewport: s.viewportOf(sess.controller)}
	if surface := sess.controller.Surface(); surface != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, surface); err != nil {
			return nil, fmt.Errorf("encode surface: %w", err)
		}
		result.ImagePNG = base64.StdEncoding.EncodeToString(buf.Bytes())
	}
	return result, nil
}

// DocSetPage navigates a session to a page, clamped to the document bounds.
func (s *Service) DocSetPage(ctx context.Context, req DocSetPageRequest) (*DocViewportResult, error) {
	sess, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.controller.SetPage(ctx, req.Page); err != nil {
		return nil, err
	}
	return &DocViewportResult{Viewport: s.viewportOf(sess.controller)}, nil
}

// DocSetZoom switches a session's zoom level, clamped to the zoom table.
func (s *Service) DocSetZoom(ctx context.Context, req DocSetZoomRequest) (*DocViewportResult, error) {
	sess, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.controller.SetZoom(ctx, req.ZoomIndex); err != nil {
		return nil, err
	}
	return &DocViewportResult{Viewport: s.viewportOf(sess.controller)}, nil
}

// DocLocateFields installs a field value set on the session and returns the
// highlight boxes for values located on the current page. Unlocated values
// are counted but not errors.
func (s *Service) DocLocateFields(_ context.Context, req DocLocateFieldsRequest) (*DocLocateFieldsResult, error) {
	sess, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}

	sess.controller.SetFieldValues(req.Fields)
	snap := sess.controller.Snapshot()
	boxes := sess.controller.Highlights()

	return &DocLocateFieldsResult{
		Boxes:      boxes,
		Located:    len(boxes),
		Requested:  len(req.Fields),
		PageNumber: snap.CurrentPage,
	}, nil
}

// DocTextLayer returns the extracted text layer of the session's current
// page.
func (s *Service) DocTextLayer(_ context.Context, req DocTextLayerRequest) (*DocTextLayerResult, error) {
	sess, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}

	fragments := sess.controller.Fragments()
	if fragments == nil {
		fragments = []textlayer.Fragment{}
	}
	return &DocTextLayerResult{
		PageNumber: sess.controller.Snapshot().CurrentPage,
		Fragments:  fragments,
	}, nil
}

// DocClose tears down a session and releases its document handle.
func (s *Service) DocClose(_ context.Context, req DocCloseRequest) (*DocCloseResult, error) {
	s.mu.Lock()
	sess, ok := s.sessions[req.SessionID]
	if ok {
		delete(s.sessions, req.SessionID)
	}
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unknown session: %s", req.SessionID)
	}
	if err := sess.controller.Close(); err != nil {
		s.logger.Printf("closing session %s: %v", sess.id, err)
	}
	return &DocCloseResult{SessionID: req.SessionID, Closed: true}, nil
}

// DocValidate validates a local document file without opening a session.
func (s *Service) DocValidate(_ context.Context, req DocValidateRequest) (*DocValidateResult, error) {
	path, err := s.resolver.NormalizePath(req.Path)
	if err != nil {
		return &DocValidateResult{Path: req.Path, Message: err.Error()}, nil
	}
	return s.validator.ValidateFile(DocValidateRequest{Path: path})
}

// DocServerInfo reports server configuration and usage guidance.
func (s *Service) DocServerInfo(_ context.Context, _ DocServerInfoRequest,
	serverName, version string, maxFileSize int64,
) (*DocServerInfoResult, error) {
	s.mu.Lock()
	active := len(s.sessions)
	s.mu.Unlock()

	return &DocServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DocumentDirectory: s.resolver.DocumentDirectory(),
		EngineType:        string(s.factory.PreferredType()),
		ZoomLevels:        append([]float64(nil), viewport.ZoomLevels...),
		MaxFileSize:       maxFileSize,
		ActiveSessions:    active,
		Usage: "Open a document with doc_open, then navigate with doc_set_page and " +
			"doc_set_zoom. Use doc_locate_fields to compute highlight boxes for " +
			"extracted field values and doc_render_page to fetch the page bitmap.",
	}, nil
}

// Close tears down every session and the engine factory.
func (s *Service) Close() error {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range sessions {
		if err := sess.controller.Close(); err != nil {
			s.logger.Printf("closing session %s: %v", sess.id, err)
		}
	}
	return s.factory.Close()
}

func (s *Service) session(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session: %s", id)
	}
	return sess, nil
}

func (s *Service) viewportOf(ctrl *viewport.Controller) Viewport {
	snap := ctrl.Snapshot()
	return Viewport{
		State:       snap.State,
		PageCount:   snap.PageCount,
		CurrentPage: snap.CurrentPage,
		ZoomIndex:   snap.ZoomIndex,
		Zoom:        snap.Zoom,
		Canvas:      snap.Canvas,
		Highlights:  ctrl.Highlights(),
		LastError:   snap.LastError,
	}
}
