package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bettercallrobots/voicebridge/config"
	"github.com/bettercallrobots/voicebridge/internal/utils"
)

// ttsVoice is ElevenLabs' voice id; the relay does the synthesis itself.
const ttsVoice = "FGY2WhTYpPnrIDTdsKH5"

const twimlTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<Response>
<Connect>
<ConversationRelay url="%s" welcomeGreeting="%s" ttsProvider="ElevenLabs" voice="%s" />
</Connect>
</Response>`

// VoiceHandler serves the Twilio-facing glue: the TwiML that points a call
// at the relay WebSocket, and browser voice access tokens.
type VoiceHandler struct {
	cfg *config.Config
}

func NewVoiceHandler(cfg *config.Config) *VoiceHandler {
	return &VoiceHandler{cfg: cfg}
}

func (h *VoiceHandler) TwiML(c *gin.Context) {
	body := fmt.Sprintf(twimlTemplate, h.cfg.WSURL, h.cfg.WelcomeGreeting, ttsVoice)
	c.Data(http.StatusOK, "text/xml", []byte(body))
}

type VoiceTokenResponse struct {
	Token    string `json:"token"`
	Identity string `json:"identity"`
	TTL      int    `json:"ttl"`
}

// Token mints a short-lived Twilio Voice access token (HS256,
// cty "twilio-fpa;v=1") granting outgoing calls through the TwiML app.
func (h *VoiceHandler) Token(c *gin.Context) {
	const op = "VoiceHandler.Token"

	if h.cfg.TwilioAccountSID == "" || h.cfg.TwilioAPIKeySID == "" ||
		h.cfg.TwilioAPIKeySecret == "" || h.cfg.TwilioTwiMLAppSID == "" {
		writeError(c, utils.E(utils.CodeInternal, op, "Twilio env vars not configured", nil))
		return
	}

	identity := c.DefaultQuery("identity", "demo-user")
	now := time.Now()
	ttl := h.cfg.TokenTTL

	claims := jwt.MapClaims{
		"jti": h.cfg.TwilioAPIKeySID + "-" + strconv.FormatInt(now.Unix(), 10),
		"iss": h.cfg.TwilioAPIKeySID,
		"sub": h.cfg.TwilioAccountSID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
		"grants": map[string]any{
			"identity": identity,
			"voice": map[string]any{
				"outgoing": map[string]any{
					"application_sid": h.cfg.TwilioTwiMLAppSID,
				},
			},
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok.Header["cty"] = "twilio-fpa;v=1"

	signed, err := tok.SignedString([]byte(h.cfg.TwilioAPIKeySecret))
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to sign token", err))
		return
	}

	c.JSON(http.StatusOK, VoiceTokenResponse{
		Token:    signed,
		Identity: identity,
		TTL:      int(ttl.Seconds()),
	})
}
