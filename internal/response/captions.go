package response

import (
	"encoding/json"
	"strings"
)

const subjectMediaCategory = "MEDIA_CATEGORY_SUBJECT"

type captionResponse struct {
	Result struct {
		Data struct {
			JSON struct {
				Result struct {
					Candidates []struct {
						Output            string `json:"output"`
						MediaGenerationID string `json:"mediaGenerationId"`
					} `json:"candidates"`
				} `json:"result"`
			} `json:"json"`
		} `json:"data"`
	} `json:"result"`
}

// ParseCaptions maps the body of the caption endpoint into the list of captions
func ParseCaptions(body string) ([]string, error) {
	var raw captionResponse
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, &CaptionError{Message: "caption response is not valid JSON", Cause: err}
	}
	candidates := raw.Result.Data.JSON.Result.Candidates
	captions := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if output := strings.TrimSpace(candidate.Output); output != "" {
			captions = append(captions, output)
		}
	}
	if len(captions) == 0 {
		return nil, &CaptionError{Message: "server responded with empty captions"}
	}
	return captions, nil
}

type captionRequest struct {
	JSON struct {
		ClientContext struct {
			SessionID  string `json:"sessionId"`
			WorkflowID string `json:"workflowId"`
		} `json:"clientContext"`
		CaptionInput struct {
			CandidatesCount int `json:"candidatesCount"`
			MediaInput      struct {
				MediaCategory string `json:"mediaCategory"`
				RawBytes      string `json:"rawBytes"`
			} `json:"mediaInput"`
		} `json:"captionInput"`
	} `json:"json"`
}

// CaptionBody builds the request body of the caption endpoint for an image given as data URI
func CaptionBody(sessionID, dataURI string, count int) ([]byte, error) {
	var req captionRequest
	req.JSON.ClientContext.SessionID = sessionID
	req.JSON.CaptionInput.CandidatesCount = count
	req.JSON.CaptionInput.MediaInput.MediaCategory = subjectMediaCategory
	req.JSON.CaptionInput.MediaInput.RawBytes = dataURI
	return json.Marshal(req)
}
