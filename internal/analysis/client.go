package analysis

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/Jonnydevp/FitPose/internal/exercise"
)

const (
	analyzePath          = "/api/v1/analyze-exercise"
	maxResponseBodyBytes = 1 << 20
	maxErrorBodyBytes    = 512
)

// File is a video picked by the user. Content is read at most once, after
// validation has passed.
type File struct {
	Name     string
	Size     int64
	MIMEType string
	Content  io.Reader
}

func (f *File) Info() FileInfo {
	return FileInfo{Name: f.Name, Size: f.Size, MIMEType: f.MIMEType}
}

// Request is one submission to the analysis service.
type Request struct {
	ID       string
	Exercise exercise.Exercise
	File     File
}

// Analyzer performs one analysis round trip.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Result, error)
}

// Client talks to the external analysis service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Endpoint() string {
	return c.baseURL + analyzePath
}

// Analyze streams the video as multipart/form-data and decodes the reply.
// Every returned error is an *Error.
func (c *Client) Analyze(ctx context.Context, req Request) (*Result, error) {
	if req.File.Content == nil {
		return nil, transportError(fmt.Errorf("no file content"))
	}

	pr, pw := io.Pipe()
	defer func() { _ = pr.Close() }()
	mw := multipart.NewWriter(pw)
	go func() {
		_ = pw.CloseWithError(writeMultipart(mw, req))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), pr)
	if err != nil {
		return nil, transportError(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")
	if req.ID != "" {
		httpReq.Header.Set("X-Request-ID", req.ID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, transportError(ctxErr)
		}
		return nil, transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, httpStatusError(resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes+1))
	if err != nil {
		return nil, transportError(fmt.Errorf("read response: %w", err))
	}
	if len(body) > maxResponseBodyBytes {
		return nil, serviceFailure(resp.StatusCode, fmt.Errorf("response larger than %d bytes", maxResponseBodyBytes))
	}

	return decodeResult(resp.StatusCode, body)
}

func writeMultipart(mw *multipart.Writer, req Request) error {
	if req.Exercise != "" {
		if err := mw.WriteField("exercise_type", req.Exercise.String()); err != nil {
			return fmt.Errorf("write exercise field: %w", err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(req.File.Name)))
	header.Set("Content-Type", req.File.MIMEType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, req.File.Content); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
