package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/voxscholar/voxscholar/internal/model"
)

// ErrUnauthorized is returned when the server rejects the cached token.
// The client clears the token before returning it.
var ErrUnauthorized = errors.New("unauthorized")

// Client is the REST client for the Vox Scholar API. All responses are
// wrapped in the server envelope; Client unwraps the data field.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	token string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 90 * time.Second},
	}
}

// SetToken installs the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) getToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) clearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// APIError is a structured error from the server envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if token := c.getToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do performs a JSON round trip. out may be nil when the response body
// is not needed.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.decode(resp, out)
}

func (c *Client) decode(resp *http.Response, out any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.clearToken()
		return ErrUnauthorized
	}

	var env envelope
	if jsonErr := json.Unmarshal(raw, &env); jsonErr == nil && env.Error != nil {
		return &APIError{Status: resp.StatusCode, Code: env.Error.Code, Message: env.Error.Message}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// doBinary performs a request whose success response is a raw byte
// stream rather than the JSON envelope.
func (c *Client) doBinary(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.clearToken()
		return nil, ErrUnauthorized
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		var env envelope
		if jsonErr := json.Unmarshal(raw, &env); jsonErr == nil && env.Error != nil {
			return nil, &APIError{Status: resp.StatusCode, Code: env.Error.Code, Message: env.Error.Message}
		}
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}
	return raw, nil
}

// ─── Health / Auth ──────────────────────────────────────────────────────

func (c *Client) Health(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return c.do(probeCtx, http.MethodGet, "/api/health", nil, nil)
}

// Login exchanges credentials for a token and installs it on the client.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	body := model.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return "", err
	}
	c.SetToken(out.Token)
	return out.Token, nil
}

// ─── Session state ──────────────────────────────────────────────────────

func (c *Client) LastSession(ctx context.Context) (*model.SessionSnapshot, error) {
	var snap *model.SessionSnapshot
	if err := c.do(ctx, http.MethodGet, "/api/last-session", nil, &snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (c *Client) SaveLastSession(ctx context.Context, snap model.SessionSnapshot) error {
	return c.do(ctx, http.MethodPost, "/api/last-session", snap, nil)
}

func (c *Client) ClearLastSession(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/last-session", nil, nil)
}

func (c *Client) History(ctx context.Context) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	if err := c.do(ctx, http.MethodGet, "/api/session-history", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) ReplaceHistory(ctx context.Context, entries []model.HistoryEntry) error {
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	return c.do(ctx, http.MethodPost, "/api/session-history", entries, nil)
}

func (c *Client) WeakAreas(ctx context.Context) ([]model.WeakArea, error) {
	var areas []model.WeakArea
	if err := c.do(ctx, http.MethodGet, "/api/weak-areas", nil, &areas); err != nil {
		return nil, err
	}
	return areas, nil
}

func (c *Client) ReplaceWeakAreas(ctx context.Context, areas []model.WeakArea) error {
	if areas == nil {
		areas = []model.WeakArea{}
	}
	return c.do(ctx, http.MethodPost, "/api/weak-areas", areas, nil)
}

// ─── Settings ───────────────────────────────────────────────────────────

func (c *Client) Settings(ctx context.Context) (model.Settings, error) {
	var s model.Settings
	err := c.do(ctx, http.MethodGet, "/api/settings", nil, &s)
	return s, err
}

func (c *Client) UpdateSettings(ctx context.Context, req model.UpdateSettingsRequest) error {
	return c.do(ctx, http.MethodPut, "/api/settings", req, nil)
}

// ─── Library items ──────────────────────────────────────────────────────

func (c *Client) ListBySubject(ctx context.Context, subject string) ([]model.Item, error) {
	var items []model.Item
	path := "/api/items?subject=" + url.QueryEscape(subject)
	if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Subjects(ctx context.Context) ([]string, error) {
	var subjects []string
	if err := c.do(ctx, http.MethodGet, "/api/items/subjects", nil, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

// remoteItem carries the note content field the items endpoints use;
// binary file content travels through the download endpoint instead.
type remoteItem struct {
	model.Item
	Content *string `json:"content,omitempty"`
}

func (c *Client) GetItem(ctx context.Context, id string) (*model.Item, error) {
	var view *remoteItem
	path := "/api/items/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, path, nil, &view); err != nil {
		return nil, err
	}
	if view == nil {
		return nil, nil
	}
	item := view.Item
	if view.Content != nil {
		item.Content = []byte(*view.Content)
	}
	return &item, nil
}

func (c *Client) DownloadItem(ctx context.Context, id string) ([]byte, error) {
	path := "/api/items/" + url.PathEscape(id) + "/download"
	return c.doBinary(ctx, http.MethodGet, path, nil)
}

func (c *Client) CreateNote(ctx context.Context, item model.Item) (string, error) {
	body := map[string]any{
		"subject":   item.Subject,
		"subfolder": item.Subfolder,
		"name":      item.Name,
		"type":      string(model.ItemTypeNote),
		"content":   item.NoteContent(),
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/items", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) UploadFile(ctx context.Context, item model.Item) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("subject", item.Subject)
	_ = w.WriteField("subfolder", item.Subfolder)
	_ = w.WriteField("name", item.Name)
	_ = w.WriteField("type", string(model.ItemTypeFile))
	part, err := w.CreateFormFile("file", item.Name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(item.Content); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/items", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		ID string `json:"id"`
	}
	if err := c.decode(resp, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) UpdateItem(ctx context.Context, id string, updates model.UpdateItemRequest) error {
	return c.do(ctx, http.MethodPatch, "/api/items/"+url.PathEscape(id), updates, nil)
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/items/"+url.PathEscape(id), nil, nil)
}

// ─── Provider proxies ───────────────────────────────────────────────────

func (c *Client) GenerateQuestions(ctx context.Context, material string) ([]model.Question, error) {
	var out struct {
		Questions []model.Question `json:"questions"`
	}
	body := map[string]string{"material": material}
	if err := c.do(ctx, http.MethodPost, "/api/generate-questions", body, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

func (c *Client) Chat(ctx context.Context, message string, history []map[string]string) (string, error) {
	var out struct {
		Reply string `json:"reply"`
	}
	body := map[string]any{"message": message, "history": history}
	if err := c.do(ctx, http.MethodPost, "/api/chat", body, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

// Synthesize returns MP3 audio for text.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	body := map[string]string{"text": text}
	if voice != "" {
		body["voice"] = voice
	}
	return c.doBinary(ctx, http.MethodPost, "/api/tts", body)
}
