package orchestrator

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/ent0n29/contactcenter/internal/session"
	"github.com/ent0n29/contactcenter/internal/stages"
	"github.com/ent0n29/contactcenter/internal/tools"
)

// Envelope types of the side tools.
const (
	TypeRecommendations = "product_recommendations"
	TypeServiceBooking  = "service_booking"
	TypeServiceDetails  = "service_details"
)

var ErrFeatureUnavailable = errors.New("feature not configured")

// ToolMetadata is attached to every side-tool answer.
type ToolMetadata struct {
	ProcessingTime int64  `json:"processingTime"`
	SessionID      string `json:"sessionId,omitempty"`
}

type RecommendationRequest struct {
	SessionID         string            `json:"sessionId"`
	Preferences       tools.Preferences `json:"preferences"`
	Intent            string            `json:"intent"`
	InterestedVehicle string            `json:"interestedVehicle"`
}

type RecommendationResponse struct {
	Type string `json:"type"`
	tools.RecommendResult
	Metadata ToolMetadata `json:"metadata"`
}

// Recommend scores the catalog for the session's customer. Sessions are
// looked up, never created; an unknown session uses the default profile.
func (s *Supervisor) Recommend(req RecommendationRequest) (RecommendationResponse, error) {
	if s.recommender == nil {
		return RecommendationResponse{}, ErrFeatureUnavailable
	}
	start := s.now()

	profile, lastIntent := s.profileFor(req.SessionID)
	intent := strings.TrimSpace(req.Intent)
	if intent == "" {
		intent = string(lastIntent)
	}

	result := s.recommender.Recommend(tools.RecommendRequest{
		Profile:           profile,
		Preferences:       req.Preferences,
		Intent:            intent,
		InterestedVehicle: req.InterestedVehicle,
	})
	s.countFeature(FeatureRecommendations)

	return RecommendationResponse{
		Type:            TypeRecommendations,
		RecommendResult: result,
		Metadata: ToolMetadata{
			ProcessingTime: s.now().Sub(start).Milliseconds(),
			SessionID:      req.SessionID,
		},
	}, nil
}

type ServiceBookingRequest struct {
	SessionID string `json:"sessionId"`
	// Vehicle overrides the vehicle on the session's profile.
	Vehicle            *stages.Vehicle `json:"vehicle,omitempty"`
	LastServiceMileage int             `json:"lastServiceMileage,omitempty"`
	CheckEngine        bool            `json:"checkEngine,omitempty"`
}

type ServiceBookingResponse struct {
	Type string `json:"type"`
	tools.BookingResult
	Metadata ToolMetadata `json:"metadata"`
}

// BookService opens a service-booking session. The booking id is recorded
// on the chat session when one exists.
func (s *Supervisor) BookService(req ServiceBookingRequest) (ServiceBookingResponse, error) {
	if s.servicer == nil {
		return ServiceBookingResponse{}, ErrFeatureUnavailable
	}
	start := s.now()

	profile, _ := s.profileFor(req.SessionID)
	var vehicle stages.Vehicle
	switch {
	case req.Vehicle != nil:
		vehicle = *req.Vehicle
	case profile.Vehicle != nil:
		vehicle = *profile.Vehicle
	}

	result := s.servicer.Start(tools.BookingRequest{
		CustomerID:         profile.ID,
		Vehicle:            vehicle,
		LastServiceMileage: req.LastServiceMileage,
		CheckEngine:        req.CheckEngine,
	})
	s.countFeature(FeatureServiceBooking)

	if req.SessionID != "" {
		err := s.sessions.Update(req.SessionID, func(sess *session.Session) {
			sess.AddTaskRef(result.Session.ID)
		})
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			s.logger.Warn("record booking", zap.String("session_id", req.SessionID), zap.Error(err))
		}
	}

	return ServiceBookingResponse{
		Type:          TypeServiceBooking,
		BookingResult: result,
		Metadata: ToolMetadata{
			ProcessingTime: s.now().Sub(start).Milliseconds(),
			SessionID:      req.SessionID,
		},
	}, nil
}

type ServiceDetailsResponse struct {
	Type     string               `json:"type"`
	Service  tools.ServiceDetails `json:"service"`
	Metadata ToolMetadata         `json:"metadata"`
}

// ServiceDetails describes one item of the service menu. Unknown ids return
// tools.ErrUnknownService.
func (s *Supervisor) ServiceDetails(serviceID string) (ServiceDetailsResponse, error) {
	if s.servicer == nil {
		return ServiceDetailsResponse{}, ErrFeatureUnavailable
	}
	start := s.now()
	details, err := s.servicer.Details(serviceID)
	if err != nil {
		return ServiceDetailsResponse{}, err
	}
	s.countFeature(FeatureServiceBooking)
	return ServiceDetailsResponse{
		Type:     TypeServiceDetails,
		Service:  details,
		Metadata: ToolMetadata{ProcessingTime: s.now().Sub(start).Milliseconds()},
	}, nil
}

func (s *Supervisor) profileFor(sessionID string) (stages.Profile, stages.Category) {
	if sessionID == "" {
		return stages.DefaultProfile(), ""
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return stages.DefaultProfile(), ""
	}
	return sess.Profile, sess.LastIntent
}

func (s *Supervisor) countFeature(feature string) {
	s.stats.recordFeature(feature)
	s.metrics.ObserveFeature(feature)
}
