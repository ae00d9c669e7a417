package services

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/nkashima/vgc-scout/backend/internal/metrics"
)

const (
	// Google Cloud Translation API v3 endpoint
	translationAPIURL = "https://translation.googleapis.com/v3/projects/%s/locations/global:translateText"

	translationScope = "https://www.googleapis.com/auth/cloud-translation"

	// Default timeout for translation requests
	translationTimeout = 10 * time.Second
)

// TranslationService renders Japanese article titles in English via the
// Google Cloud Translation API. It authenticates with a service account
// key, so no SDK dependency is needed for one endpoint.
type TranslationService struct {
	projectID   string
	accessToken string
	tokenExpiry time.Time
	httpClient  *http.Client
	credentials *googleCredentials
	privateKey  *rsa.PrivateKey
	enabled     bool
	mu          sync.Mutex // Protects token refresh
}

// googleCredentials represents a Google Cloud service account JSON key
type googleCredentials struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

// translateRequest is the request body for Google Cloud Translation API v3
type translateRequest struct {
	SourceLanguageCode string   `json:"sourceLanguageCode,omitempty"`
	TargetLanguageCode string   `json:"targetLanguageCode"`
	Contents           []string `json:"contents"`
	MimeType           string   `json:"mimeType"`
}

// translateResponse is the response from Google Cloud Translation API v3
type translateResponse struct {
	Translations []struct {
		TranslatedText       string `json:"translatedText"`
		DetectedLanguageCode string `json:"detectedLanguageCode,omitempty"`
	} `json:"translations"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// tokenResponse is the response from Google OAuth2 token endpoint
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Error       string `json:"error,omitempty"`
	ErrorDesc   string `json:"error_description,omitempty"`
}

// NewTranslationService creates a new translation service.
// It auto-enables if GOOGLE_APPLICATION_CREDENTIALS points to a valid file.
func NewTranslationService() *TranslationService {
	svc := &TranslationService{
		httpClient: &http.Client{Timeout: translationTimeout},
		enabled:    false,
	}

	credPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	if credPath == "" {
		log.Println("Translation service: GOOGLE_APPLICATION_CREDENTIALS not set, title translation disabled")
		return svc
	}

	// Expand ~ to home directory
	if strings.HasPrefix(credPath, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			credPath = strings.Replace(credPath, "~", home, 1)
		}
	}

	data, err := os.ReadFile(credPath)
	if err != nil {
		log.Printf("Translation service: failed to read credentials file %s: %v", credPath, err)
		return svc
	}

	var creds googleCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		log.Printf("Translation service: failed to parse credentials: %v", err)
		return svc
	}

	if creds.ProjectID == "" || creds.PrivateKey == "" || creds.ClientEmail == "" {
		log.Println("Translation service: credentials file missing required fields")
		return svc
	}

	rsaKey, err := parseServiceAccountKey(creds.PrivateKey)
	if err != nil {
		log.Printf("Translation service: %v", err)
		return svc
	}

	svc.credentials = &creds
	svc.privateKey = rsaKey
	svc.projectID = creds.ProjectID
	svc.enabled = true

	log.Printf("Translation service: enabled for project %s", svc.projectID)
	return svc
}

// parseServiceAccountKey decodes the PEM private key from a credentials
// file. Google issues PKCS8 keys; PKCS1 is accepted for older ones.
func parseServiceAccountKey(pemKey string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block from private key")
	}

	privateKey, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		if rsaKey, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes); pkcs1Err == nil {
			return rsaKey, nil
		}
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	rsaKey, ok := privateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not RSA")
	}
	return rsaKey, nil
}

// IsEnabled returns whether the translation service is available
func (s *TranslationService) IsEnabled() bool {
	return s.enabled
}

// TranslateTitle renders a Japanese article title in English. Species names
// are replaced from the built-in dictionary first because the API
// transliterates them (ガブリアス comes back "Gaburias", not "Garchomp");
// the API then handles the surrounding prose when it is configured. The
// result is always usable, at worst the species-substituted original.
func (s *TranslationService) TranslateTitle(ctx context.Context, title string) string {
	title = TranslateSpeciesNames(strings.TrimSpace(title))
	if title == "" || !s.enabled {
		return title
	}

	translated, err := s.Translate(ctx, title, "ja", "en")
	if err != nil {
		debugLog("Title translation failed: %v", err)
		return title
	}
	return translated
}

// Translate translates text from source language to target language.
// If sourceLang is empty, the API will auto-detect the source language.
// The original text is returned alongside any error so callers can fall
// back without branching.
func (s *TranslationService) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if !s.enabled {
		return text, fmt.Errorf("translation service not enabled")
	}
	if text == "" {
		return "", nil
	}

	if err := s.ensureAccessToken(ctx); err != nil {
		metrics.TranslationRequestsTotal.WithLabelValues("auth").Inc()
		return text, fmt.Errorf("failed to get access token: %w", err)
	}

	reqBody := translateRequest{
		TargetLanguageCode: targetLang,
		Contents:           []string{text},
		MimeType:           "text/plain",
	}
	if sourceLang != "" {
		reqBody.SourceLanguageCode = sourceLang
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return text, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf(translationAPIURL, s.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqJSON))
	if err != nil {
		return text, fmt.Errorf("failed to create request: %w", err)
	}

	s.mu.Lock()
	token := s.accessToken
	s.mu.Unlock()

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	startTime := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		metrics.TranslationRequestsTotal.WithLabelValues("network").Inc()
		return text, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.TranslationRequestDuration.Observe(time.Since(startTime).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.TranslationRequestsTotal.WithLabelValues("network").Inc()
		return text, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.TranslationRequestsTotal.WithLabelValues("api").Inc()
		return text, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result translateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		metrics.TranslationRequestsTotal.WithLabelValues("parse").Inc()
		return text, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Error != nil {
		metrics.TranslationRequestsTotal.WithLabelValues("api").Inc()
		return text, fmt.Errorf("API error %d: %s", result.Error.Code, result.Error.Message)
	}

	if len(result.Translations) == 0 {
		metrics.TranslationRequestsTotal.WithLabelValues("empty").Inc()
		return text, fmt.Errorf("no translations returned")
	}

	metrics.TranslationRequestsTotal.WithLabelValues("ok").Inc()
	return result.Translations[0].TranslatedText, nil
}

// ensureAccessToken refreshes the cached OAuth2 bearer token when it is
// missing or within a minute of expiry. A service account authenticates by
// trading a self-signed JWT assertion for an access token.
func (s *TranslationService) ensureAccessToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Add(time.Minute).Before(s.tokenExpiry) {
		return nil
	}

	assertion, err := s.signAuthJWT()
	if err != nil {
		return fmt.Errorf("failed to sign auth assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.credentials.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read token response: %w", err)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return fmt.Errorf("failed to parse token response: %w", err)
	}
	if token.Error != "" {
		return fmt.Errorf("token error: %s - %s", token.Error, token.ErrorDesc)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	s.accessToken = token.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return nil
}

// authClaims is the payload of the JWT bearer assertion. iss and sub are
// both the service account email; aud is the token endpoint itself.
type authClaims struct {
	Issuer   string `json:"iss"`
	Subject  string `json:"sub"`
	Audience string `json:"aud"`
	IssuedAt int64  `json:"iat"`
	Expires  int64  `json:"exp"`
	Scope    string `json:"scope"`
}

// signAuthJWT builds the RS256-signed assertion for the token exchange.
func (s *TranslationService) signAuthJWT() (string, error) {
	now := time.Now()
	claims := authClaims{
		Issuer:   s.credentials.ClientEmail,
		Subject:  s.credentials.ClientEmail,
		Audience: s.credentials.TokenURI,
		IssuedAt: now.Unix(),
		Expires:  now.Add(time.Hour).Unix(),
		Scope:    translationScope,
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}
	headerJSON, _ := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT"})

	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) +
		"." + base64.RawURLEncoding.EncodeToString(claimsJSON)
	hash := sha256.Sum256([]byte(signingInput))
	signature, err := rsa.SignPKCS1v15(nil, s.privateKey, crypto.SHA256, hash[:])
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(signature), nil
}
