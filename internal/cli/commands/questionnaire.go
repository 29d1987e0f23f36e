package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carepoint-rx/carepoint/internal/guard"
	"github.com/carepoint-rx/carepoint/internal/services"
)

// NewQuestionnaireCmd creates the questionnaire command group
func NewQuestionnaireCmd(load EnvLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questionnaire",
		Short: "Complete the medical questionnaire",
	}
	cmd.AddCommand(newQuestionnaireSubmitCmd(load))
	return cmd
}

func newQuestionnaireSubmitCmd(load EnvLoader) *cobra.Command {
	var answers map[string]string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Answer and submit the questionnaire",
		Long: `Fetches the questionnaire and submits your answers. Answers can be given
as --answer <question-id>=<answer>; any question left unanswered is asked
interactively.`,
		RunE: guarded(load, guard.RequireUser, func(cmd *cobra.Command, args []string, env *Env) error {
			q, err := env.Service.GetQuestionnaire(cmd.Context())
			if err != nil {
				return err
			}

			var sub services.QuestionnaireSubmission
			for _, question := range q.Questions {
				answer, ok := answers[fmt.Sprint(question.ID)]
				if !ok {
					label := question.Text
					if len(question.Options) > 0 {
						label += " (" + strings.Join(question.Options, "/") + ")"
					} else if question.Type == "yes_no" {
						label += " (yes/no)"
					}
					if answer, err = env.Prompter.Text(label, ""); err != nil {
						return err
					}
				}
				if answer == "" && !question.Required {
					continue
				}
				sub.Answers = append(sub.Answers, services.Answer{QuestionID: question.ID, Answer: answer})
			}

			if err := env.Service.SubmitQuestionnaire(cmd.Context(), sub); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "✓ Submitted %d answers\n", len(sub.Answers))
			return nil
		}),
	}

	cmd.Flags().StringToStringVar(&answers, "answer", nil, "Answer as <question-id>=<answer> (repeatable)")

	return cmd
}
