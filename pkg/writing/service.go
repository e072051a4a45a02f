// Package writing rewrites resume text and drafts job-search correspondence with the completion service.
package writing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/artem13815/resumeflow/pkg/llm"
)

// ErrValidation is a user-correctable input error; its text is the response message.
type ErrValidation string

func (e ErrValidation) Error() string { return string(e) }

const (
	ErrNoText          ErrValidation = "No text provided"
	ErrCoverLetterArgs ErrValidation = "Name and job description are required"
	ErrEmailArgs       ErrValidation = "Missing required fields"
	ErrInterviewArgs   ErrValidation = "Missing required fields"
	ErrFollowUpArgs    ErrValidation = "Missing required fields for follow-up"
)

// ErrInvalidInterview is returned when the model's interview turn is not the requested JSON shape.
var ErrInvalidInterview = errors.New("invalid interview completion")

const (
	optimizeSystem    = "You are an expert resume writer with years of experience in crafting ATS-friendly resumes that get results. Your goal is to help professionals present their experience in the most impactful way possible."
	coverLetterSystem = "You are a professional cover letter writer with expertise in creating compelling, personalized cover letters."
	emailSystem       = "You are an expert in professional communication and job search correspondence. Your task is to generate appropriate email responses for various stages of the job application process."
	interviewSystem   = "You are a JSON-only response generator. You must ONLY output valid JSON objects exactly matching the requested format. Never include any other text, markdown, or explanations."
)

// ExperienceRequest is one job entry to rewrite.
type ExperienceRequest struct {
	Text    string `json:"text"`
	Role    string `json:"role"`
	Company string `json:"company"`
}

// InterviewRequest asks for the first question or, with the previous question and answer, for a follow-up.
type InterviewRequest struct {
	Industry        string `json:"industry"`
	Position        string `json:"position"`
	CurrentQuestion string `json:"currentQuestion"`
	UserAnswer      string `json:"userAnswer"`
	IsFirstQuestion bool   `json:"isFirstQuestion"`
}

// InterviewTurn holds Question for the first turn, Feedback, Score and NextQuestion afterwards.
type InterviewTurn struct {
	Question     string   `json:"question,omitempty"`
	Feedback     string   `json:"feedback,omitempty"`
	Score        *float64 `json:"score,omitempty"`
	NextQuestion string   `json:"nextQuestion,omitempty"`
}

type CoverLetterRequest struct {
	Name           string `json:"name"`
	JobDescription string `json:"jobDescription"`
	JobURL         string `json:"jobUrl"`
}

type EmailRequest struct {
	JobInfo string `json:"jobInfo"`
	Stage   string `json:"stage"`
	Tone    string `json:"tone"`
}

type Service struct {
	llm      llm.ChatModel
	timeout  time.Duration
	maxChars int
}

func NewService(model llm.ChatModel, timeout time.Duration, maxChars int) *Service {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if maxChars <= 0 {
		maxChars = 16000
	}
	return &Service{llm: model, timeout: timeout, maxChars: maxChars}
}

// Optimize rewrites a professional summary to be ATS-friendly.
func (s *Service) Optimize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	prompt := "As a professional resume writer, rewrite the following professional summary to be more impactful and ATS-friendly. " +
		"Focus on quantifiable achievements, industry-specific keywords, and clear value propositions. " +
		"Maintain a professional tone and keep it concise:\n\n" + s.clip(text)
	return s.ask(ctx, optimizeSystem, prompt)
}

// OptimizeExperience rewrites a single job description for the given role and company.
func (s *Service) OptimizeExperience(ctx context.Context, req ExperienceRequest) (string, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return "", ErrNoText
	}
	prompt := fmt.Sprintf("As an expert resume writer, enhance the following job experience description for a %s position at %s. "+
		"Make it more impactful by:\n"+
		"1. Using strong action verbs\n"+
		"2. Quantifying achievements where possible\n"+
		"3. Highlighting specific skills and technologies\n"+
		"4. Focusing on results and impact\n"+
		"5. Keeping it concise and professional\n"+
		"6. Making it ATS-friendly\n\n"+
		"Original text:\n%s\n\n"+
		"Please provide only the enhanced description without any additional commentary.",
		strings.TrimSpace(req.Role), strings.TrimSpace(req.Company), s.clip(text))
	return s.ask(ctx, optimizeSystem, prompt, llm.WithTemperature(0.7), llm.WithMaxTokens(200))
}

func (s *Service) CoverLetter(ctx context.Context, req CoverLetterRequest) (string, error) {
	name, jd := strings.TrimSpace(req.Name), strings.TrimSpace(req.JobDescription)
	if name == "" || jd == "" {
		return "", ErrCoverLetterArgs
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Write a professional cover letter for %s based on the following job description:\n\n%s\n\n", name, s.clip(jd))
	if u := strings.TrimSpace(req.JobURL); u != "" {
		fmt.Fprintf(&b, "Job posting URL: %s\n\n", u)
	}
	b.WriteString("The cover letter should:\n" +
		"1. Be professionally formatted\n" +
		"2. Highlight relevant skills and experiences that match the job requirements\n" +
		"3. Show enthusiasm for the role and company\n" +
		"4. Be concise but compelling\n" +
		"5. Include a strong opening and closing\n" +
		"6. Not exceed one page\n\n" +
		"Please write the cover letter in a professional business format with proper spacing and paragraphs.")
	return s.ask(ctx, coverLetterSystem, b.String(), llm.WithTemperature(0.7), llm.WithMaxTokens(1000))
}

// Email drafts a reply for a stage of the application process, e.g. "follow-up" or "offer-negotiation".
func (s *Service) Email(ctx context.Context, req EmailRequest) (string, error) {
	info, stage, tone := strings.TrimSpace(req.JobInfo), strings.TrimSpace(req.Stage), strings.TrimSpace(req.Tone)
	if info == "" || stage == "" || tone == "" {
		return "", ErrEmailArgs
	}
	prompt := fmt.Sprintf("Generate a professional email response for a job %s with a %s tone.\n\nJob Information:\n%s\n\n"+
		"Requirements:\n"+
		"1. The email should be professional and well-structured\n"+
		"2. Use a %s tone throughout the email\n"+
		"3. Include appropriate greeting and closing\n"+
		"4. Keep the email concise but comprehensive\n"+
		"5. Include any relevant specific details from the job information\n"+
		"6. For follow-ups, express continued interest; for interview follow-ups, thank the interviewer for their time\n\n"+
		"Please generate the complete email response.",
		strings.ReplaceAll(stage, "-", " "), tone, s.clip(info), tone)
	return s.ask(ctx, emailSystem, prompt, llm.WithTemperature(0.7), llm.WithMaxTokens(1000))
}

// Interview runs one turn of a mock interview. The completion must be a JSON object;
// a follow-up score may come back as a number or a numeric string and must lie in 0..10.
func (s *Service) Interview(ctx context.Context, req InterviewRequest) (InterviewTurn, error) {
	industry, position := strings.TrimSpace(req.Industry), strings.TrimSpace(req.Position)
	if industry == "" || position == "" {
		return InterviewTurn{}, ErrInterviewArgs
	}
	question, answer := strings.TrimSpace(req.CurrentQuestion), strings.TrimSpace(req.UserAnswer)
	if !req.IsFirstQuestion && (question == "" || answer == "") {
		return InterviewTurn{}, ErrFollowUpArgs
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an experienced interviewer conducting a job interview for a %s position in the %s industry.\n\n", position, industry)
	if req.IsFirstQuestion {
		b.WriteString("Your task is to generate a relevant first interview question.\n\n" +
			"CRITICAL: You must respond with ONLY a JSON object in this exact format, no other text:\n" +
			"{\n  \"question\": \"your interview question here\"\n}\n\n" +
			"Example response:\n" +
			"{\n  \"question\": \"Can you tell me about your experience with Python programming?\"\n}")
	} else {
		fmt.Fprintf(&b, "Previous question: \"%s\"\nCandidate's answer: \"%s\"\n\n", question, s.clip(answer))
		b.WriteString("Your task is to evaluate the answer and provide the next question.\n\n" +
			"CRITICAL: You must respond with ONLY a JSON object in this exact format, no other text:\n" +
			"{\n  \"feedback\": \"detailed feedback about the answer\",\n" +
			"  \"score\": \"score out of 10 based on the quality of the answer\",\n" +
			"  \"nextQuestion\": \"your next interview question\"\n}\n\n" +
			"Example response:\n" +
			"{\n  \"feedback\": \"Your answer demonstrated good understanding of the concept...\",\n" +
			"  \"score\": 8,\n" +
			"  \"nextQuestion\": \"How would you handle error cases in this scenario?\"\n}")
	}

	out, err := s.ask(ctx, interviewSystem, b.String(), llm.WithJSON(), llm.WithTemperature(0.7))
	if err != nil {
		return InterviewTurn{}, err
	}
	if out == "" {
		return InterviewTurn{}, llm.ErrEmptyCompletion
	}
	return parseInterviewTurn(out, req.IsFirstQuestion)
}

func parseInterviewTurn(raw string, first bool) (InterviewTurn, error) {
	var c struct {
		Question     string          `json:"question"`
		Feedback     string          `json:"feedback"`
		Score        json.RawMessage `json:"score"`
		NextQuestion string          `json:"nextQuestion"`
	}
	if err := llm.DecodeObject(raw, &c); err != nil {
		return InterviewTurn{}, fmt.Errorf("%w: %w", ErrInvalidInterview, err)
	}
	if first {
		q := strings.TrimSpace(c.Question)
		if q == "" {
			return InterviewTurn{}, fmt.Errorf("%w: missing question", ErrInvalidInterview)
		}
		return InterviewTurn{Question: q}, nil
	}

	feedback, next := strings.TrimSpace(c.Feedback), strings.TrimSpace(c.NextQuestion)
	if feedback == "" || next == "" || len(c.Score) == 0 {
		return InterviewTurn{}, fmt.Errorf("%w: missing required fields", ErrInvalidInterview)
	}
	score, err := parseScore(c.Score)
	if err != nil {
		return InterviewTurn{}, fmt.Errorf("%w: %w", ErrInvalidInterview, err)
	}
	return InterviewTurn{Feedback: feedback, Score: &score, NextQuestion: next}, nil
}

func parseScore(raw json.RawMessage) (float64, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		text = string(raw)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("score %s is not a number", raw)
	}
	if v < 0 || v > 10 {
		return 0, fmt.Errorf("score %v is out of range", v)
	}
	return v, nil
}

func (s *Service) ask(ctx context.Context, system, prompt string, opts ...llm.Option) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("completion service is not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	out, err := s.llm.Ask(ctx, system, prompt, opts...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (s *Service) clip(text string) string {
	if r := []rune(text); len(r) > s.maxChars {
		return string(r[:s.maxChars])
	}
	return text
}
