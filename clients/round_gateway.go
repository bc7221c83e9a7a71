package clients

import (
	"context"

	"guessr/round"
)

// RoundGateway adapts a GuessrClient to the round.Gateway the game loop uses.
type RoundGateway struct {
	client *GuessrClient
}

var _ round.Gateway = (*RoundGateway)(nil)

func NewRoundGateway(client *GuessrClient) *RoundGateway {
	return &RoundGateway{client: client}
}

func (g *RoundGateway) StartRound(ctx context.Context) (round.RoundData, error) {
	resp, err := g.client.StartRound(ctx)
	if err != nil {
		return round.RoundData{}, err
	}
	questions := make([]round.Question, 0, len(resp.Questions))
	for _, ev := range resp.Questions {
		questions = append(questions, round.Question{
			ID:           ev.ID,
			Hint:         ev.Description,
			Organization: ev.Organization,
			ImageURL:     ev.ImageBase64,
			Points:       ev.PointsValue,
		})
	}
	return round.RoundData{RoundID: resp.GameRoundID, Questions: questions}, nil
}

func (g *RoundGateway) SubmitGuess(ctx context.Context, req round.GuessRequest) (round.GuessVerdict, error) {
	res, err := g.client.SubmitGuess(ctx, GuessPayload{
		GameRoundID: req.RoundID,
		UICEventID:  req.QuestionID,
		Answer:      req.Answer,
		TimeTaken:   float64(req.ElapsedSeconds),
	})
	if err != nil {
		return round.GuessVerdict{}, err
	}
	return round.GuessVerdict{
		Correct:       res.IsCorrect,
		Score:         res.CurrentScore,
		PointsEarned:  res.PointsEarned,
		CorrectAnswer: res.CorrectAnswer,
	}, nil
}

func (g *RoundGateway) FinalizeRound(ctx context.Context, roundID int64) (round.Finalization, error) {
	res, err := g.client.CompleteRound(ctx, roundID)
	if err != nil {
		return round.Finalization{}, err
	}
	return round.Finalization{FinalScore: res.FinalScore, Accuracy: res.Accuracy}, nil
}
