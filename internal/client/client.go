// Package client is the Go consumer of the quiz API. It implements
// session.API so the attempt controller can run against a live server,
// carrying the auth cookie the way a browser would.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"campus-quiz-service/internal/app"
	"campus-quiz-service/internal/domain"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar},
	}, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/register", body, nil)
}

// Login establishes the session; the cookie jar holds the token for every
// later call.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/login", body, nil)
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Quizzes lists quizzes annotated for the logged-in user.
func (c *Client) Quizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	var out []domain.QuizSummary
	if err := c.do(ctx, http.MethodGet, "/quizzes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchQuiz implements session.API.
func (c *Client) FetchQuiz(ctx context.Context, quizID string) (domain.Quiz, []domain.QuestionView, error) {
	var out struct {
		Quiz      domain.Quiz           `json:"quiz"`
		Questions []domain.QuestionView `json:"questions"`
	}
	if err := c.do(ctx, http.MethodGet, "/quizzes/"+quizID, nil, &out); err != nil {
		return domain.Quiz{}, nil, err
	}
	return out.Quiz, out.Questions, nil
}

// SubmitAnswers implements session.API.
func (c *Client) SubmitAnswers(ctx context.Context, quizID string, answers map[string]string) (app.SubmitResult, error) {
	body := struct {
		QuizID  string            `json:"quizId"`
		Answers map[string]string `json:"answers"`
	}{QuizID: quizID, Answers: answers}

	var out app.SubmitResult
	if err := c.do(ctx, http.MethodPost, "/quizzes/submit", body, &out); err != nil {
		return app.SubmitResult{}, err
	}
	return out, nil
}

// Result fetches the full review for a submission.
func (c *Client) Result(ctx context.Context, submissionID string) (domain.ResultData, error) {
	var out domain.ResultData
	if err := c.do(ctx, http.MethodGet, "/results/"+submissionID, nil, &out); err != nil {
		return domain.ResultData{}, err
	}
	return out, nil
}

// Stats fetches the dashboard counters.
func (c *Client) Stats(ctx context.Context) (domain.StudentStats, error) {
	var out domain.StudentStats
	if err := c.do(ctx, http.MethodGet, "/students/stats", nil, &out); err != nil {
		return domain.StudentStats{}, err
	}
	return out, nil
}

// Performance fetches the submission history.
func (c *Client) Performance(ctx context.Context) ([]domain.PerformanceRow, error) {
	var out []domain.PerformanceRow
	if err := c.do(ctx, http.MethodGet, "/students/performance", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
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

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// apiError converts HTTP failures to the domain taxonomy. A 401 always
// means "force re-authentication", never a quiz-domain error.
func apiError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusNotFound:
		if body.Message == domain.ErrSubmissionNotFound.Error() {
			return domain.ErrSubmissionNotFound
		}
		return domain.ErrQuizNotFound
	case http.StatusConflict:
		return domain.ErrEmailTaken
	case http.StatusUnprocessableEntity:
		return domain.ErrIncompleteAnswers
	}
	if body.Message != "" {
		return fmt.Errorf("api error (%d): %s", resp.StatusCode, body.Message)
	}
	return fmt.Errorf("api error (%d)", resp.StatusCode)
}
