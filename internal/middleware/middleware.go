package middleware

import (
	"net/http"
	"strconv"

	"github.com/anvikal/ragchat/internal/handlers"
	"github.com/anvikal/ragchat/internal/metrics"
	"github.com/anvikal/ragchat/pkg/logx"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logx.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var (
	GetHandler                = Wrap(handlers.GetHandler)
	CreateConversationHandler = Wrap(handlers.CreateConversationHandler)
	GetConversationHandler    = Wrap(handlers.GetConversationHandler)
	DeleteConversationHandler = Wrap(handlers.DeleteConversationHandler)
	ChatHandler               = Wrap(handlers.ChatHandler)
	ChatStreamHandler         = Wrap(handlers.ChatStreamHandler)
	UploadHandler             = Wrap(handlers.UploadHandler)
	DeleteDocumentHandler     = Wrap(handlers.DeleteDocumentHandler)
	PostIngestHandler         = Wrap(handlers.PostIngestHandler)
	GetJobStatusHandler       = Wrap(handlers.GetJobStatusHandler)
	GetRateStatusHandler      = Wrap(handlers.GetRateStatusHandler)
)

// Wrap runs the shared request chain: trace injection, bearer auth, per-IP
// throttling, then the handler, with status recording for metrics.
func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200}
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
	}
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logx.New("middleware")

	re = injectTrace(re)
	re = authenticate(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re = rateLimiter(re)
	return re
}
