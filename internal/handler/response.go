// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/homequest/internal/flow"
	"github.com/hitoshi/homequest/internal/model"
)

// errorResponse はエラーのJSON表現。
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
}

// profileResponse はハイドレーション済みプロフィールのJSON表現。
type profileResponse struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url,omitempty"`
	GroupID   string `json:"group_id,omitempty"`
	GroupName string `json:"group_name,omitempty"`
	IsLeader  bool   `json:"is_leader"`
}

// flowResponse はフロー判断のJSON表現。モバイルクライアントが画面遷移に使う。
type flowResponse struct {
	NextAction string           `json:"next_action"`
	SessionID  string           `json:"session_id,omitempty"`
	Profile    *profileResponse `json:"profile,omitempty"`
	Error      *errorResponse   `json:"error,omitempty"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeFlowResult はflow.Resultを適切なHTTPステータスでJSONとして書き込む。
func writeFlowResult(w http.ResponseWriter, res flow.Result) {
	body := flowResponse{
		NextAction: string(res.NextAction),
		SessionID:  res.SessionID,
	}
	if res.Profile != nil {
		body.Profile = &profileResponse{
			ID:        res.Profile.ID,
			Nickname:  res.Profile.Nickname,
			AvatarURL: res.Profile.AvatarURL,
			GroupID:   res.Profile.GroupID,
			GroupName: res.Profile.GroupName,
			IsLeader:  res.Profile.IsLeader,
		}
	}

	status := http.StatusOK
	if res.Alert != nil {
		body.Error = &errorResponse{
			Code:    res.Alert.Code,
			Message: res.Alert.Message,
			Action:  res.Alert.Action,
		}
		status = statusForCode(res.Alert.Code)
	}

	writeJSON(w, status, body)
}

// writeAPIError はAPIErrorを適切なHTTPステータスでJSONとして書き込む。
func writeAPIError(w http.ResponseWriter, apiErr *model.APIError) {
	writeJSON(w, statusForCode(apiErr.Code), flowResponse{
		Error: &errorResponse{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Action:  apiErr.Action,
		},
	})
}

// statusForCode はプレゼンテーション層のエラーコードをHTTPステータスに写像する。
func statusForCode(code string) int {
	switch code {
	case model.ErrCodeAuthenticationFailed:
		return http.StatusUnauthorized
	case model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case model.ErrCodeNetworkFailed:
		return http.StatusBadGateway
	case model.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
