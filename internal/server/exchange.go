package server

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"github.com/gl-gateway/gl-gateway/internal/dispatch"
	"github.com/gl-gateway/gl-gateway/internal/handler"
)

const uploadField = "file"

// disconnectPollInterval 是等待处理器期间探测客户端断开的间隔。
var disconnectPollInterval = 100 * time.Millisecond

// serveDispatch 把 Fiber 请求交给分发器，等待结果提交、客户端断开或 BaseContext 取消。
func serveDispatch(c fiber.Ctx, opts AppOptions) error {
	base := opts.BaseContext
	if base == nil {
		base = context.Background()
	}

	in, err := inboundFromCtx(c, opts.ListenPort)
	if err != nil {
		opts.Logger.WithFields(logrus.Fields{
			"action":     "read_request",
			"request_id": RequestID(c),
		}).WithError(err).Warn("request body unreadable")
		return c.SendStatus(fiber.StatusBadRequest)
	}

	stop := make(chan struct{})
	defer close(stop)
	gone := closeNotify(c.RequestCtx().Conn(), disconnectPollInterval, stop)

	resp := opts.Dispatcher.Dispatch(base, in)
	select {
	case <-resp.Done():
	case <-gone:
		resp.Close()
	case <-base.Done():
		resp.Close()
	}
	if resp.Abandoned() {
		c.RequestCtx().SetConnectionClose()
		return nil
	}
	return writeResponse(c, resp)
}

// inboundFromCtx 抽取分发所需的请求视图，头部和请求体均拷贝出 fasthttp 的复用缓冲区。
func inboundFromCtx(c fiber.Ctx, port int) (*dispatch.Inbound, error) {
	header := make(http.Header)
	for key, values := range c.GetReqHeaders() {
		for _, value := range values {
			header.Add(key, value)
		}
	}

	in := &dispatch.Inbound{
		RequestID: RequestID(c),
		Method:    c.Method(),
		Path:      string(c.Request().URI().Path()),
		Host:      getHostHeader(c),
		Header:    header,
		Multilang: c.Request().URI().QueryArgs().Has("multilang"),
		ClientIP:  c.IP(),
		Port:      port,
		Secure:    c.Secure(),
		Body:      append([]byte(nil), c.Body()...),
	}

	if strings.HasPrefix(strings.ToLower(header.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		upload, err := readUpload(c)
		if err != nil {
			return nil, err
		}
		in.Upload = upload
		in.Body = nil
	}
	return in, nil
}

// readUpload 读取 multipart 中的 file 字段；字段缺失时返回 nil。
func readUpload(c fiber.Ctx) (*handler.Upload, error) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		if errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*handler.Upload, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &handler.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// writeResponse 原样写出已提交的状态码、头部与响应体。
func writeResponse(c fiber.Ctx, resp *dispatch.Response) error {
	header := resp.Header()
	for key, values := range header {
		c.Response().Header.Del(key)
		for _, value := range values {
			c.Response().Header.Add(key, value)
		}
	}
	if header.Get(fiber.HeaderContentType) == "" {
		c.Response().Header.SetNoDefaultContentType(true)
	}
	c.Status(resp.Status())
	return c.Send(resp.Body())
}

func getHostHeader(c fiber.Ctx) string {
	if raw := c.Request().Header.Peek(fiber.HeaderHost); len(raw) > 0 {
		return string(raw)
	}
	return c.Hostname()
}
