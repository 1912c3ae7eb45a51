package grpcapi

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/go-sod/sidx/internal/api"
	"github.com/go-sod/sidx/internal/layer"
	"github.com/go-sod/sidx/internal/logging"
	"github.com/go-sod/sidx/pkg/geom"
)

var _ IndexServer = (*Server)(nil)

type Options struct {
	maxBatch int
	maxK     int
}

type Option func(*Server)

func WithMaxBatch(n int) Option {
	return func(s *Server) {
		s.opts.maxBatch = n
	}
}

func WithMaxK(n int) Option {
	return func(s *Server) {
		s.opts.maxK = n
	}
}

// Server implements sidx.Index on top of a layer manager.
type Server struct {
	opts    Options
	manager layer.Manager
}

func NewServer(manager layer.Manager, opts ...Option) *Server {
	s := &Server{manager: manager}
	for _, f := range opts {
		f(s)
	}
	return s
}

// NewGRPCServer returns a grpc server with the index registered and every
// call logged under its own request id.
func NewGRPCServer(ctx context.Context, srv IndexServer, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.UnaryInterceptor(LoggingInterceptor(logging.FromContext(ctx)))}, opts...)
	s := grpc.NewServer(opts...)
	RegisterIndexServer(s, srv)
	return s
}

func (s *Server) Insert(ctx context.Context, req *api.PointsRequest) (*api.StatusResponse, error) {
	if s.opts.maxBatch > 0 && len(req.Points) > s.opts.maxBatch {
		return nil, status.Errorf(codes.InvalidArgument, "data items is too large, max allowed len is %d", s.opts.maxBatch)
	}
	if err := s.manager.Insert(ctx, req.Layer, req.Points...); err != nil {
		return nil, statusFor(err)
	}
	return &api.StatusResponse{Status: "ok"}, nil
}

func (s *Server) Delete(ctx context.Context, req *api.PointsRequest) (*api.DeleteResponse, error) {
	if s.opts.maxBatch > 0 && len(req.Points) > s.opts.maxBatch {
		return nil, status.Errorf(codes.InvalidArgument, "data items is too large, max allowed len is %d", s.opts.maxBatch)
	}
	removed, err := s.manager.Delete(ctx, req.Layer, req.Points...)
	if err != nil {
		return nil, statusFor(err)
	}
	return &api.DeleteResponse{Removed: removed}, nil
}

func (s *Server) Search(ctx context.Context, req *api.SearchRequest) (*api.PointsResponse, error) {
	points, err := s.manager.Search(ctx, req.Layer, req.Rect)
	if err != nil {
		return nil, statusFor(err)
	}
	return &api.PointsResponse{Points: points}, nil
}

func (s *Server) Nearest(ctx context.Context, req *api.NearestRequest) (*api.NearestResponse, error) {
	if s.opts.maxK > 0 && req.K > s.opts.maxK {
		return nil, status.Errorf(codes.InvalidArgument, "k is too large, max allowed is %d", s.opts.maxK)
	}
	if req.K > 1 {
		points, err := s.manager.KNearest(ctx, req.Layer, req.Point, req.K)
		if err != nil {
			return nil, statusFor(err)
		}
		return &api.NearestResponse{Found: len(points) > 0, Points: points}, nil
	}

	p, ok, err := s.manager.Nearest(ctx, req.Layer, req.Point)
	if err != nil {
		return nil, statusFor(err)
	}
	resp := &api.NearestResponse{Found: ok, Points: []geom.Point{}}
	if ok {
		resp.Points = append(resp.Points, p)
	}
	return resp, nil
}

func (s *Server) Within(ctx context.Context, req *api.WithinRequest) (*api.PointsResponse, error) {
	points, err := s.manager.Within(ctx, req.Layer, req.Point, req.Radius, req.Metric)
	if err != nil {
		return nil, statusFor(err)
	}
	return &api.PointsResponse{Points: points}, nil
}

func statusFor(err error) error {
	switch {
	case errors.Is(err, layer.ErrLayerNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, layer.ErrLayerFull):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, layer.ErrEmptyName),
		errors.Is(err, layer.ErrNonFinite),
		errors.Is(err, layer.ErrInvalidRect),
		errors.Is(err, layer.ErrInvalidRadius),
		errors.Is(err, geom.ErrUnknownDistance):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// LoggingInterceptor attaches a request scoped logger to every call and
// logs its outcome.
func LoggingInterceptor(base *zap.SugaredLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		logger := base.With("request_id", uuid.New().String(), "method", info.FullMethod)
		resp, err := handler(logging.WithLogger(ctx, logger), req)
		if err != nil {
			logger.Infof("call failed after %v: %v", time.Since(start), err)
			return resp, err
		}
		logger.Debugf("call served in %v", time.Since(start))
		return resp, nil
	}
}
