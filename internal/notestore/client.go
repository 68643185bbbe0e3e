package notestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"notes-tui/internal/model"
)

const DefaultTimeout = 10 * time.Second

// Client communicates with the note service HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// GetTree returns the root-level notes with their children nested in hierarchy order.
func (c *Client) GetTree(ctx context.Context) ([]model.TreeNote, error) {
	var out []model.TreeNote
	if err := c.doJSON(ctx, "get tree", http.MethodGet, "/notes/tree", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetNote fetches one note with its content.
func (c *Client) GetNote(ctx context.Context, id int64) (model.Note, error) {
	var out model.Note
	err := c.doJSON(ctx, "get note "+itoa(id), http.MethodGet, "/notes/flat/"+itoa(id), nil, &out)
	return out, err
}

// ListNotes returns every note with its content left out.
func (c *Client) ListNotes(ctx context.Context) ([]model.Note, error) {
	var out []model.Note
	if err := c.doJSON(ctx, "list notes", http.MethodGet, "/notes/flat?exclude_content=true", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateNote(ctx context.Context, title, content string) (model.Note, error) {
	var out model.Note
	req := model.CreateNoteRequest{Title: title, Content: content}
	err := c.doJSON(ctx, "create note", http.MethodPost, "/notes/flat", req, &out)
	return out, err
}

func (c *Client) UpdateNote(ctx context.Context, id int64, upd model.NoteUpdate) (model.Note, error) {
	var out model.Note
	err := c.doJSON(ctx, "update note "+itoa(id), http.MethodPut, "/notes/flat/"+itoa(id), upd, &out)
	return out, err
}

func (c *Client) DeleteNote(ctx context.Context, id int64) (model.DeleteNoteResponse, error) {
	var out model.DeleteNoteResponse
	err := c.doJSON(ctx, "delete note "+itoa(id), http.MethodDelete, "/notes/flat/"+itoa(id), nil, &out)
	return out, err
}

// Attach makes child the last child of parent.
func (c *Client) Attach(ctx context.Context, child, parent int64, kind string) error {
	if kind == "" {
		kind = model.HierarchyBlock
	}
	req := model.AttachNoteRequest{ChildNoteID: child, ParentNoteID: parent, HierarchyType: kind}
	return c.doJSON(ctx, fmt.Sprintf("attach %d to %d", child, parent), http.MethodPost, "/notes/hierarchy/attach", req, nil)
}

// Detach removes child from its parent. A note without a parent yields a KindNotFound error.
func (c *Client) Detach(ctx context.Context, child int64) error {
	return c.doJSON(ctx, "detach "+itoa(child), http.MethodDelete, "/notes/hierarchy/detach/"+itoa(child), nil, nil)
}

func (c *Client) Relations(ctx context.Context) ([]model.HierarchyRelation, error) {
	var out []model.HierarchyRelation
	if err := c.doJSON(ctx, "list relations", http.MethodGet, "/notes/hierarchy", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search runs a full-text query. Results are ordered by relevance, best first.
func (c *Client) Search(ctx context.Context, query string) ([]model.Note, error) {
	var out []model.Note
	path := "/notes/search/fts?q=" + url.QueryEscape(query)
	if err := c.doJSON(ctx, "search", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RenderNote returns the note rendered server-side; format is "md" or "html".
func (c *Client) RenderNote(ctx context.Context, id int64, format string) (string, error) {
	op := "render note " + itoa(id)
	resp, err := c.do(ctx, op, http.MethodGet, "/notes/flat/"+itoa(id)+"/render/"+url.PathEscape(format), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Op: op, Kind: KindUnreachable, Err: err}
	}
	return string(b), nil
}

// RenderMarkdown renders arbitrary markdown; an empty format lets the server choose.
func (c *Client) RenderMarkdown(ctx context.Context, content, format string) (string, error) {
	op := "render markdown"
	resp, err := c.do(ctx, op, http.MethodPost, "/render/markdown", model.RenderMarkdownRequest{Content: content, Format: format})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Op: op, Kind: KindUnreachable, Err: err}
	}
	return string(b), nil
}

// DownloadAsset streams an asset by file name. The caller closes the body.
func (c *Client) DownloadAsset(ctx context.Context, name string) (io.ReadCloser, string, error) {
	resp, err := c.do(ctx, "download asset "+name, http.MethodGet, "/assets/download/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	resp, err := c.do(ctx, op, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Kind: KindOther, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// do issues the request and classifies failures. On success the caller owns resp.Body.
func (c *Client) do(ctx context.Context, op, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, &Error{Op: op, Kind: KindOther, Err: fmt.Errorf("marshal: %w", err)}
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindOther, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindUnreachable, Err: err}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	kind := KindOther
	if resp.StatusCode == http.StatusNotFound {
		kind = KindNotFound
	}
	return nil, &Error{Op: op, Kind: kind, Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
