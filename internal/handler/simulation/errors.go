package simulation

import (
	"context"
	"errors"
	"net/http"

	"github.com/kaigi-sim/backend/internal/model/meeting"
	"github.com/kaigi-sim/backend/internal/service/ai"
	simulationService "github.com/kaigi-sim/backend/internal/service/simulation"
	"github.com/kaigi-sim/backend/pkg/utils"
	"k8s.io/klog/v2"
)

const (
	msgValidation  = "必要な情報が不足しています。"
	msgTimeout     = "リクエストがタイムアウトしました。しばらく時間をおいて再度お試しください。"
	msgProvider    = "APIサービスとの通信に問題が発生しました。"
	msgUnavailable = "サーバー側でAPIキーが設定されていません。"
	msgInternal    = "サーバー内部でエラーが発生しました。"
	msgNotFound    = "セッションが見つかりません。"
	msgConflict    = "現在の状態ではこの操作を実行できません。"
	msgBadBody     = "リクエストの形式が正しくありません。"
)

// statusFor maps a service error to its HTTP status and user message.
func statusFor(err error) (int, string) {
	var validation *meeting.ValidationError
	var transition *simulationService.InvalidTransitionError

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, msgValidation
	case errors.Is(err, simulationService.ErrSessionNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.As(err, &transition):
		return http.StatusConflict, msgConflict
	case errors.Is(err, simulationService.ErrGeneratorUnavailable):
		return http.StatusServiceUnavailable, msgUnavailable
	case ai.IsTimeout(err):
		return http.StatusGatewayTimeout, msgTimeout
	case ai.IsResponse(err):
		return http.StatusBadGateway, msgProvider
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, msgInternal
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func respondError(w http.ResponseWriter, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		klog.Errorf("[handler] request failed: status=%d err=%v", status, err)
	}
	utils.RespondErrorDetails(w, status, message, err)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	utils.RespondJSON(w, status, payload)
}
