package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core"
	"github.com/trezcool/learnhub/core/course"
	"github.com/trezcool/learnhub/core/recommend"
)

// fallbackMessage is returned verbatim whenever a recommendation turn fails.
const fallbackMessage = "I'm sorry, I'm having trouble processing your request. Please try again."

type chatbotApi struct {
	courseSvc course.Service
	logger    core.Logger
}

func registerChatbotAPI(g *echo.Group, courseSvc course.Service, logger core.Logger) {
	api := chatbotApi{courseSvc: courseSvc, logger: logger}

	g.POST("/chatbot/recommend", api.recommend)
}

type (
	ChatTurn struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	RecommendRequest struct {
		Message             string            `json:"message"`
		Preferences         recommend.Profile `json:"preferences"`
		ConversationHistory []ChatTurn        `json:"conversation_history"`
	}

	RecommendResponse struct {
		Message         string            `json:"message"`
		Recommendations []course.Course   `json:"recommendations"`
		Preferences     recommend.Profile `json:"preferences"`
		NextQuestion    string            `json:"next_question,omitempty"`
	}
)

// recommend runs one chatbot turn. Any internal failure is swallowed and
// answered with a fixed apology so the conversation widget never breaks.
func (api *chatbotApi) recommend(ctx echo.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			api.logger.Error(fmt.Sprintf("chatbot panic: %v", r), errors.Errorf("%v", r))
			err = api.fallback(ctx)
		}
	}()

	var data RecommendRequest
	if err := ctx.Bind(&data); err != nil {
		return api.fallback(ctx)
	}

	catalog, err := api.courseSvc.QueryAll()
	if err != nil {
		api.logger.Error("chatbot: loading catalog", errors.Wrap(err, "loading catalog"))
		return api.fallback(ctx)
	}

	resp := recommend.Respond(data.Message, data.Preferences, len(data.ConversationHistory), catalog)
	recommendations := resp.Recommendations
	if recommendations == nil {
		recommendations = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, RecommendResponse{
		Message:         resp.Message,
		Recommendations: recommendations,
		Preferences:     resp.Profile,
		NextQuestion:    resp.NextQuestion,
	})
}

func (api *chatbotApi) fallback(ctx echo.Context) error {
	return ctx.JSON(http.StatusInternalServerError, RecommendResponse{
		Message:         fallbackMessage,
		Recommendations: []course.Course{},
		Preferences:     recommend.Profile{},
	})
}
