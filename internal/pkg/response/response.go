package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

// apiErr carries an errcode value into proxyutil, which reads the
// code off the error when building the envelope.
type apiErr struct {
	code uint32
	msg  string
}

func (e apiErr) Error() string { return e.msg }
func (e apiErr) Code() uint32  { return e.code }

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error answers HTTP 200 with the failure code in the envelope,
// clients switch on the body code rather than the status line.
func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, http.StatusOK, apiErr{code: uint32(code), msg: message})
}
