package middleware

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
)

// AccessLog is gin's request logger without the query string. The live
// order feed carries its bearer token in ?access_token=.
func AccessLog(out io.Writer) gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    out,
		Formatter: accessLogFormatter,
	})
}

func accessLogFormatter(p gin.LogFormatterParams) string {
	return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v\n%s",
		p.TimeStamp.Format("2006/01/02 - 15:04:05"),
		p.StatusCode,
		p.Latency,
		p.ClientIP,
		p.Method,
		p.Request.URL.Path,
		p.ErrorMessage,
	)
}
