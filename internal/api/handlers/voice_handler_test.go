package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bettercallrobots/voicebridge/config"
)

func voiceTestConfig() *config.Config {
	return &config.Config{
		WSURL:           "wss://example.ngrok.app/ws",
		WelcomeGreeting: "Hello caller!",

		TwilioAccountSID:   "AC000",
		TwilioAPIKeySID:    "SK000",
		TwilioAPIKeySecret: "topsecret",
		TwilioTwiMLAppSID:  "AP000",
		TokenTTL:           time.Hour,
	}
}

func doVoiceRequest(t *testing.T, cfg *config.Config, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewVoiceHandler(cfg)
	r := gin.New()
	r.POST("/twiml", h.TwiML)
	r.GET("/voice/token", h.Token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestTwiML(t *testing.T) {
	cfg := voiceTestConfig()
	w := doVoiceRequest(t, cfg, http.MethodPost, "/twiml")

	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/xml") {
		t.Fatalf("content type %q", ct)
	}

	body := w.Body.String()
	for _, want := range []string{"<ConversationRelay", cfg.WSURL, cfg.WelcomeGreeting} {
		if !strings.Contains(body, want) {
			t.Fatalf("twiml missing %q:\n%s", want, body)
		}
	}
}

func TestVoiceToken(t *testing.T) {
	cfg := voiceTestConfig()
	w := doVoiceRequest(t, cfg, http.MethodGet, "/voice/token?identity=alice")

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	var resp VoiceTokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Identity != "alice" || resp.TTL != 3600 {
		t.Fatalf("unexpected response %+v", resp)
	}

	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(resp.Token, claims, func(t *jwt.Token) (any, error) {
		return []byte(cfg.TwilioAPIKeySecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	if tok.Header["cty"] != "twilio-fpa;v=1" {
		t.Fatalf("unexpected cty header %v", tok.Header["cty"])
	}
	if claims["iss"] != cfg.TwilioAPIKeySID || claims["sub"] != cfg.TwilioAccountSID {
		t.Fatalf("unexpected claims %v", claims)
	}

	grants, ok := claims["grants"].(map[string]any)
	if !ok {
		t.Fatalf("grants missing: %v", claims)
	}
	if grants["identity"] != "alice" {
		t.Fatalf("identity grant %v", grants["identity"])
	}
	voice, ok := grants["voice"].(map[string]any)
	if !ok {
		t.Fatal("voice grant missing")
	}
	outgoing := voice["outgoing"].(map[string]any)
	if outgoing["application_sid"] != cfg.TwilioTwiMLAppSID {
		t.Fatalf("application sid %v", outgoing["application_sid"])
	}
}

func TestVoiceTokenDefaultIdentity(t *testing.T) {
	w := doVoiceRequest(t, voiceTestConfig(), http.MethodGet, "/voice/token")

	var resp VoiceTokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Identity != "demo-user" {
		t.Fatalf("expected default identity, got %q", resp.Identity)
	}
}

func TestVoiceTokenUnconfigured(t *testing.T) {
	cfg := voiceTestConfig()
	cfg.TwilioAPIKeySecret = ""

	w := doVoiceRequest(t, cfg, http.MethodGet, "/voice/token")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for missing credentials, got %d", w.Code)
	}
}
