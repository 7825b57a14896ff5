package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/yski/yski-client/internal/client/api"
)

// RequestIDHeader - заголовок корреляции запросов
const RequestIDHeader = "X-Request-ID"

type retriedKey struct{}

// markRetried помечает контекст повтора: такой запрос больше не повторяется
func markRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

func isRetried(ctx context.Context) bool {
	v, _ := ctx.Value(retriedKey{}).(bool)
	return v
}

// AccessTokenSource отдает текущий access token
type AccessTokenSource interface {
	AccessToken() string
}

// Transport - http.RoundTripper: ATTACH_TOKEN -> SEND -> {SUCCESS | AUTH_FAILED | OTHER_FAILURE}.
// На 401 для запроса с токеном вызывает Coordinator и повторяет запрос один раз.
// Токен прикрепляется только к запросам на хост API (в том числе после редиректов).
type Transport struct {
	base   http.RoundTripper
	tokens AccessTokenSource
	coord  *Coordinator
	origin *url.URL
}

// NewTransport создает транспорт для API по адресу apiBaseURL;
// base = nil означает http.DefaultTransport
func NewTransport(apiBaseURL string, base http.RoundTripper, tokens AccessTokenSource, coord *Coordinator) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	t := &Transport{base: base, tokens: tokens, coord: coord}
	if u, err := url.Parse(apiBaseURL); err == nil && u.Host != "" {
		t.origin = u
	}
	return t
}

// sameOrigin сообщает, идет ли запрос на хост API
func (t *Transport) sameOrigin(u *url.URL) bool {
	return t.origin != nil && u != nil &&
		u.Scheme == t.origin.Scheme && u.Host == t.origin.Host
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	out := req.Clone(ctx)
	if getBody != nil {
		if out.Body, err = getBody(); err != nil {
			return nil, fmt.Errorf("failed to open request body: %w", err)
		}
		out.GetBody = getBody
	}
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, uuid.NewString())
	}

	// чужой хост не получает токен, даже если Authorization пришел с запросом
	var sent string
	if t.sameOrigin(out.URL) {
		sent = t.tokens.AccessToken()
	} else {
		out.Header.Del("Authorization")
	}
	if sent != "" {
		out.Header.Set("Authorization", "Bearer "+sent)
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", api.ErrNetwork, err)
	}

	// 401 без токена (или уже повторенного запроса) возвращается как есть
	if resp.StatusCode != http.StatusUnauthorized || sent == "" || isRetried(ctx) {
		return resp, nil
	}
	drainAndClose(resp)

	fresh, err := t.coord.Recover(ctx, sent)
	if err != nil {
		return nil, err
	}

	replay := req.Clone(markRetried(ctx))
	if getBody != nil {
		if replay.Body, err = getBody(); err != nil {
			return nil, fmt.Errorf("failed to reopen request body: %w", err)
		}
		replay.GetBody = getBody
	}
	replay.Header.Set(RequestIDHeader, out.Header.Get(RequestIDHeader))
	replay.Header.Set("Authorization", "Bearer "+fresh)

	resp, err = t.base.RoundTrip(replay)
	if err != nil {
		t.coord.observer.Replayed(false)
		return nil, fmt.Errorf("%w: %w", api.ErrNetwork, err)
	}
	t.coord.observer.Replayed(resp.StatusCode != http.StatusUnauthorized)
	return resp, nil
}

// replayableBody возвращает функцию, открывающую тело заново.
// Тело без GetBody буферизуется в память.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		_ = req.Body.Close()
		return req.GetBody, nil
	}

	buf, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to buffer request body: %w", err)
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	}, nil
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
