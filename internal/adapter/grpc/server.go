package grpc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/bizplan-backend/internal/domain"
	"github.com/simaogato/bizplan-backend/internal/usecase/forecast"
	"github.com/simaogato/bizplan-backend/internal/usecase/projection"
)

// Server implements the PlannerService gRPC server
type Server struct {
	ProjectionService *projection.ProjectionService
	ForecastService   *forecast.ForecastService
	Logger            *zap.Logger
}

var _ PlannerServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(
	projectionService *projection.ProjectionService,
	forecastService *forecast.ForecastService,
	logger *zap.Logger,
) *Server {
	return &Server{
		ProjectionService: projectionService,
		ForecastService:   forecastService,
		Logger:            logger,
	}
}

// PreviewProjection handles the PreviewProjection RPC
func (s *Server) PreviewProjection(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in projectionInputMessage
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	yearly, metrics, err := s.ProjectionService.Preview(in.toDomain())
	if err != nil {
		return nil, s.fail("PreviewProjection", err)
	}

	return encodeResponse(previewProjectionResponse{
		YearlyProjections: yearly,
		Metrics:           metrics,
	})
}

// CreateProjection handles the CreateProjection RPC
func (s *Server) CreateProjection(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	var in createProjectionRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	p, err := s.ProjectionService.Create(ctx, userID, in.Name, in.Input.toDomain())
	if err != nil {
		return nil, s.fail("CreateProjection", err)
	}

	return encodeResponse(projectionToMessage(p))
}

// GetProjection handles the GetProjection RPC
func (s *Server) GetProjection(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, id, err := s.projectionTarget(ctx, req)
	if err != nil {
		return nil, err
	}

	p, err := s.ProjectionService.Get(ctx, userID, id)
	if err != nil {
		return nil, s.fail("GetProjection", err)
	}

	return encodeResponse(projectionToMessage(p))
}

// RecalculateMetrics handles the RecalculateMetrics RPC
func (s *Server) RecalculateMetrics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, id, err := s.projectionTarget(ctx, req)
	if err != nil {
		return nil, err
	}

	p, err := s.ProjectionService.RecalculateMetrics(ctx, userID, id)
	if err != nil {
		return nil, s.fail("RecalculateMetrics", err)
	}

	return encodeResponse(projectionToMessage(p))
}

// SaveForecastData handles the SaveForecastData RPC
func (s *Server) SaveForecastData(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	var in forecastDataMessage
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	point, err := in.toDomain()
	if err != nil {
		return nil, err
	}

	if err := s.ForecastService.SaveDataPoint(ctx, userID, &point); err != nil {
		return nil, s.fail("SaveForecastData", err)
	}

	return encodeResponse(forecastDataToMessage(&point))
}

// GenerateForecast handles the GenerateForecast RPC
func (s *Server) GenerateForecast(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	var in generateForecastRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	dataID, err := parseID("forecast_data_id", in.ForecastDataID)
	if err != nil {
		return nil, err
	}

	method := domain.ForecastMethod(in.Method)
	if in.Method == "" {
		method = domain.ForecastMethodAuto
	}

	out, err := s.ForecastService.Generate(ctx, userID, dataID, method, in.HorizonMonths)
	if err != nil {
		return nil, s.fail("GenerateForecast", err)
	}

	return encodeResponse(forecastToMessage(out))
}

func (s *Server) projectionTarget(ctx context.Context, req *structpb.Struct) (uuid.UUID, uuid.UUID, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	var in projectionIDRequest
	if err := decodeRequest(req, &in); err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	id, err := parseID("projection_id", in.ProjectionID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	return userID, id, nil
}

func requireUser(ctx context.Context) (uuid.UUID, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, status.Error(codes.Unauthenticated, "missing user id")
	}
	return userID, nil
}

// fail logs unexpected failures and converts the error to a gRPC status
func (s *Server) fail(method string, err error) error {
	st := mapError(err)
	if status.Code(st) == codes.Internal {
		s.Logger.Error("rpc failed", zap.String("method", method), zap.Error(err))
	}
	return st
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return status.Errorf(codes.InvalidArgument, "%s", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Errorf(codes.PermissionDenied, "%s", err.Error())
	case errors.Is(err, domain.ErrNotComputable):
		return status.Errorf(codes.FailedPrecondition, "%s", err.Error())
	}

	// Default to Internal error for unknown errors
	return status.Error(codes.Internal, "internal error")
}
