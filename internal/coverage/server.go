package coverage

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	serverLoggerMissingMessageConstant  = "coverage server logger not configured"
	reportDirectoryMissingTemplateConst = "coverage report directory %s does not exist; run the test task first"
	reportRoutePrefixConstant           = "/report"
	reportIndexRedirectConstant         = "/report/index.html"
	rootRouteConstant                   = "/"
	serverStartedMessageConstant        = "coverage report server listening"
	serverStoppedMessageConstant        = "coverage report server stopped"
	serverAddressFieldConstant          = "address"
	reportDirectoryFieldConstant        = "report_directory"
	requestPathFieldConstant            = "path"
	requestStatusFieldConstant          = "status"
	requestDurationFieldConstant        = "duration"
	requestCompletedMessageConstant     = "request completed"
	serverShutdownGraceConstant         = 5 * time.Second

	// DefaultReportDirectory is where pytest-cov writes its HTML report.
	DefaultReportDirectory = "htmlcov"
	// DefaultListenAddress binds the report server to an ephemeral local port.
	DefaultListenAddress = "127.0.0.1:0"
)

// ReportServer serves the generated HTML coverage report over HTTP.
type ReportServer struct {
	reportDirectory string
	listenAddress   string
	logger          *zap.Logger

	listener   net.Listener
	httpServer *http.Server
}

// NewReportServer validates inputs and constructs a report server.
func NewReportServer(reportDirectory string, listenAddress string, logger *zap.Logger) (*ReportServer, error) {
	if logger == nil {
		return nil, errors.New(serverLoggerMissingMessageConstant)
	}
	if len(reportDirectory) == 0 {
		reportDirectory = DefaultReportDirectory
	}
	if len(listenAddress) == 0 {
		listenAddress = DefaultListenAddress
	}

	directoryInfo, statError := os.Stat(reportDirectory)
	if statError != nil || !directoryInfo.IsDir() {
		return nil, fmt.Errorf(reportDirectoryMissingTemplateConst, reportDirectory)
	}

	return &ReportServer{
		reportDirectory: reportDirectory,
		listenAddress:   listenAddress,
		logger:          logger,
	}, nil
}

// Start binds the listener and begins serving in the calling goroutine's
// background. The bound address is available through Address afterwards.
func (server *ReportServer) Start() error {
	listener, listenError := net.Listen("tcp", server.listenAddress)
	if listenError != nil {
		return listenError
	}
	server.listener = listener

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), server.requestLoggingMiddleware())
	router.Static(reportRoutePrefixConstant, server.reportDirectory)
	router.GET(rootRouteConstant, func(requestContext *gin.Context) {
		requestContext.Redirect(http.StatusTemporaryRedirect, reportIndexRedirectConstant)
	})

	server.httpServer = &http.Server{Handler: router}
	server.logger.Info(serverStartedMessageConstant,
		zap.String(serverAddressFieldConstant, listener.Addr().String()),
		zap.String(reportDirectoryFieldConstant, server.reportDirectory),
	)

	go func() {
		serveError := server.httpServer.Serve(listener)
		if serveError != nil && !errors.Is(serveError, http.ErrServerClosed) {
			server.logger.Error(serverStoppedMessageConstant, zap.Error(serveError))
		}
	}()
	return nil
}

// Address returns the bound listen address. Start must have succeeded.
func (server *ReportServer) Address() string {
	if server.listener == nil {
		return ""
	}
	return server.listener.Addr().String()
}

// Wait blocks until the context is cancelled, then shuts the server down.
func (server *ReportServer) Wait(executionContext context.Context) error {
	<-executionContext.Done()
	return server.Stop()
}

// Stop gracefully shuts the server down.
func (server *ReportServer) Stop() error {
	if server.httpServer == nil {
		return nil
	}
	shutdownContext, cancelShutdown := context.WithTimeout(context.Background(), serverShutdownGraceConstant)
	defer cancelShutdown()

	shutdownError := server.httpServer.Shutdown(shutdownContext)
	server.logger.Info(serverStoppedMessageConstant)
	return shutdownError
}

func (server *ReportServer) requestLoggingMiddleware() gin.HandlerFunc {
	return func(requestContext *gin.Context) {
		requestStart := time.Now()
		requestContext.Next()
		server.logger.Debug(requestCompletedMessageConstant,
			zap.String(requestPathFieldConstant, requestContext.Request.URL.Path),
			zap.Int(requestStatusFieldConstant, requestContext.Writer.Status()),
			zap.Duration(requestDurationFieldConstant, time.Since(requestStart)),
		)
	}
}
