package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

const maxRequestBytes = 8 << 20

type functionInfo struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	MinArgs   int    `json:"min_args"`
	MaxArgs   int    `json:"max_args"`
}

type invokeRequest struct {
	Name string `json:"name"`
	Args []any  `json:"args"`
}

type invokeResponse struct {
	Result any `json:"result"`
}

// errorValue is the JSON form of a cell error, in both directions
type errorValue struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type problem struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

type server struct {
	registry *xl.Registry
	logger   *zap.Logger
}

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the function registry over HTTP",
		Long: `Serve the function registry over HTTP.

  GET  /functions  lists registered functions with their parameters
  POST /invoke     {"name": "SUM", "args": [1, [[2, 3]], {"error": "#N/A"}]}

JSON null is a missing argument and nested arrays are ranges.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.ListenAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, addr, newRouter(a.registry, a.logger), a.logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default XLCALC_LISTEN_ADDR)")
	return cmd
}

func serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func newRouter(registry *xl.Registry, logger *zap.Logger) http.Handler {
	s := &server{registry: registry, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/functions", s.handleFunctions)
	r.Post("/invoke", s.handleInvoke)
	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *server) handleFunctions(w http.ResponseWriter, r *http.Request) {
	names := s.registry.Names()
	infos := make([]functionInfo, 0, len(names))
	for _, name := range names {
		spec, _ := s.registry.Lookup(name)
		infos = append(infos, functionInfo{
			Name:      spec.Name,
			Signature: spec.Signature(),
			MinArgs:   spec.MinArgs(),
			MaxArgs:   spec.MaxArgs(),
		})
	}
	s.writeJSON(w, http.StatusOK, infos)
}

func (s *server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req invokeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, problem{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if req.Name == "" {
		s.writeJSON(w, http.StatusBadRequest, problem{Error: "name is required"})
		return
	}

	raw := make([]any, len(req.Args))
	for i, arg := range req.Args {
		v, err := argFromJSON(arg)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, problem{Error: fmt.Sprintf("argument %d: %v", i+1, err)})
			return
		}
		raw[i] = v
	}

	result, err := s.registry.Invoke(req.Name, raw...)
	if err != nil {
		var appErr *xl.AppError
		status := http.StatusInternalServerError
		code := int(xl.Internal)
		if errors.As(err, &appErr) {
			code = int(appErr.Code)
			switch appErr.Code {
			case xl.InvalidArgument, xl.Unimplemented:
				status = http.StatusUnprocessableEntity
			case xl.NotFound:
				status = http.StatusNotFound
			}
		}
		s.writeJSON(w, status, problem{Error: err.Error(), Code: code})
		return
	}
	s.writeJSON(w, http.StatusOK, invokeResponse{Result: resultToJSON(result)})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}

// argFromJSON maps one decoded argument onto what Registry.Invoke accepts.
// an array of arrays is a range of rows, a flat array is a single row.
func argFromJSON(v any) (any, error) {
	list, ok := v.([]any)
	if !ok {
		return cellFromJSON(v)
	}

	nested := len(list) > 0
	for _, item := range list {
		if _, isList := item.([]any); !isList {
			nested = false
			break
		}
	}
	if !nested {
		row, err := rowFromJSON(list)
		if err != nil {
			return nil, err
		}
		return row, nil
	}

	rows := make([][]any, len(list))
	for i, item := range list {
		row, err := rowFromJSON(item.([]any))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows[i] = row
	}
	return rows, nil
}

func rowFromJSON(list []any) ([]any, error) {
	row := make([]any, len(list))
	for i, item := range list {
		if _, isList := item.([]any); isList {
			return nil, errors.New("ranges cannot contain nested arrays")
		}
		v, err := cellFromJSON(item)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

func cellFromJSON(v any) (any, error) {
	switch x := v.(type) {
	case nil, float64, string, bool:
		return x, nil
	case map[string]any:
		text, _ := x["error"].(string)
		code, ok := xl.ParseErrorCode(text)
		if !ok {
			return nil, fmt.Errorf("unknown error value %q", text)
		}
		message, _ := x["message"].(string)
		return xl.NewError(code, "%s", message), nil
	}
	return nil, fmt.Errorf("unsupported JSON value %T", v)
}

func resultToJSON(a xl.Arg) any {
	switch v := a.(type) {
	case xl.Number:
		return float64(v)
	case xl.Text:
		return string(v)
	case xl.Boolean:
		return bool(v)
	case xl.Error:
		return errorValue{Error: v.Code.String(), Message: v.Message}
	case *xl.Range:
		rows := make([][]any, 0, v.Rows())
		for _, row := range v.IterateRows() {
			out := make([]any, len(row))
			for i, cell := range row {
				out[i] = resultToJSON(cell)
			}
			rows = append(rows, out)
		}
		return rows
	}
	return nil
}
