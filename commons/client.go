// Package commons publishes files to Wikimedia Commons through the MediaWiki
// action API, https://www.mediawiki.org/wiki/API:Upload
package commons

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/segmentio/encoding/json"
	log "github.com/sirupsen/logrus"
	"github.com/wikimedia-pl/mbckit/feeds"
)

// DefaultEndpoint is the Commons action API.
const DefaultEndpoint = "https://commons.wikimedia.org/w/api.php"

// ErrFileExists is returned, if the target file or an identical copy of it
// is already on the wiki.
var ErrFileExists = errors.New("file exists")

// APIError is an error reported by the API in the response body.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediawiki: %s: %s", e.Code, e.Info)
}

// Client talks to a MediaWiki API. The underlying Doer needs to keep cookies
// for the session to survive the login.
type Client struct {
	Doer     feeds.Doer
	Endpoint string

	csrfToken string
}

// tokenResponse, for action=query&meta=tokens.
type tokenResponse struct {
	Error *APIError `json:"error"`
	Query struct {
		Tokens struct {
			CSRFToken  string `json:"csrftoken"`
			LoginToken string `json:"logintoken"`
		} `json:"tokens"`
	} `json:"query"`
}

type loginResponse struct {
	Error *APIError `json:"error"`
	Login struct {
		Result     string `json:"result"` // Success, Failed, ...
		Reason     string `json:"reason"`
		LguserName string `json:"lgusername"`
	} `json:"login"`
}

// pagesResponse, for action=query&titles=...&formatversion=2.
type pagesResponse struct {
	Error *APIError `json:"error"`
	Query struct {
		Pages []struct {
			Title   string `json:"title"`
			Missing bool   `json:"missing"`
			Invalid bool   `json:"invalid"`
		} `json:"pages"`
	} `json:"query"`
}

type uploadResponse struct {
	Error  *APIError `json:"error"`
	Upload struct {
		Result   string                     `json:"result"` // Success, Warning
		Filename string                     `json:"filename"`
		Warnings map[string]json.RawMessage `json:"warnings"`
	} `json:"upload"`
}

func (c *Client) endpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

// Login authenticates with a bot password, as created on
// Special:BotPasswords, e.g. "Mazovian_Digital_Library_Upload@harvest".
func (c *Client) Login(ctx context.Context, username, password string) error {
	token, err := c.token(ctx, "login")
	if err != nil {
		return err
	}
	form := url.Values{}
	form.Set("action", "login")
	form.Set("lgname", username)
	form.Set("lgpassword", password)
	form.Set("lgtoken", token)
	var lr loginResponse
	if err := c.postForm(ctx, form, &lr); err != nil {
		return err
	}
	if lr.Error != nil {
		return lr.Error
	}
	if lr.Login.Result != "Success" {
		return fmt.Errorf("mediawiki: login %s: %s", lr.Login.Result, lr.Login.Reason)
	}
	c.csrfToken = ""
	log.WithField("user", lr.Login.LguserName).Info("logged in")
	return nil
}

// token fetches a token of the given type, "login" or "csrf".
func (c *Client) token(ctx context.Context, kind string) (string, error) {
	vs := url.Values{}
	vs.Set("action", "query")
	vs.Set("meta", "tokens")
	vs.Set("type", kind)
	var tr tokenResponse
	if err := c.get(ctx, vs, &tr); err != nil {
		return "", err
	}
	if tr.Error != nil {
		return "", tr.Error
	}
	var token string
	switch kind {
	case "login":
		token = tr.Query.Tokens.LoginToken
	default:
		token = tr.Query.Tokens.CSRFToken
	}
	if token == "" {
		return "", fmt.Errorf("mediawiki: no %s token", kind)
	}
	return token, nil
}

// Exists reports whether a file page with the given name exists, name is
// given without the "File:" namespace.
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	vs := url.Values{}
	vs.Set("action", "query")
	vs.Set("titles", "File:"+name)
	var pr pagesResponse
	if err := c.get(ctx, vs, &pr); err != nil {
		return false, err
	}
	if pr.Error != nil {
		return false, pr.Error
	}
	if len(pr.Query.Pages) == 0 {
		return false, fmt.Errorf("mediawiki: no page info for %s", name)
	}
	page := pr.Query.Pages[0]
	if page.Invalid {
		return false, fmt.Errorf("mediawiki: invalid title: %s", name)
	}
	return !page.Missing, nil
}

// Upload is a single file to publish.
type Upload struct {
	Filename string
	Text     string // wikitext of the file page
	Comment  string
	Content  io.Reader
}

// Upload sends a file. Warnings, like an existing file or a duplicate, are
// not ignored and surface as ErrFileExists.
func (c *Client) Upload(ctx context.Context, u *Upload) error {
	if c.csrfToken == "" {
		token, err := c.token(ctx, "csrf")
		if err != nil {
			return err
		}
		c.csrfToken = token
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"action", "upload"},
		{"format", "json"},
		{"formatversion", "2"},
		{"filename", u.Filename},
		{"text", u.Text},
		{"comment", u.Comment},
		{"token", c.csrfToken},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	fw, err := mw.CreateFormFile("file", u.Filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, u.Content); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var ur uploadResponse
	if err := c.do(req, &ur); err != nil {
		return err
	}
	if ur.Error != nil {
		switch ur.Error.Code {
		case "fileexists-no-change", "fileexists-forbidden", "fileexists-shared-forbidden":
			return fmt.Errorf("%s: %w", u.Filename, ErrFileExists)
		case "badtoken":
			c.csrfToken = ""
		}
		return ur.Error
	}
	switch ur.Upload.Result {
	case "Success":
		log.WithField("filename", ur.Upload.Filename).Info("uploaded")
		return nil
	case "Warning":
		for _, k := range []string{"exists", "duplicate", "duplicate-archive", "page-exists"} {
			if _, ok := ur.Upload.Warnings[k]; ok {
				return fmt.Errorf("%s: %s: %w", u.Filename, k, ErrFileExists)
			}
		}
		var keys []string
		for k := range ur.Upload.Warnings {
			keys = append(keys, k)
		}
		return fmt.Errorf("mediawiki: upload %s: warnings: %s", u.Filename, strings.Join(keys, ", "))
	default:
		return fmt.Errorf("mediawiki: upload %s: result %q", u.Filename, ur.Upload.Result)
	}
}

func (c *Client) get(ctx context.Context, vs url.Values, v any) error {
	vs.Set("format", "json")
	vs.Set("formatversion", "2")
	link := fmt.Sprintf("%s?%s", c.endpoint(), vs.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return err
	}
	return c.do(req, v)
}

func (c *Client) postForm(ctx context.Context, form url.Values, v any) error {
	form.Set("format", "json")
	form.Set("formatversion", "2")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.Doer.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("mediawiki: HTTP %d while fetching %s", resp.StatusCode, req.URL)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("mediawiki: decode failed with %v", err)
	}
	return nil
}
