// Package operations holds the dispatch tables of the democracy365 API:
// what each named operation runs and which parameters it takes.
package operations

import "github.com/dmitrijs2005/democracy365/internal/server/dispatch"

// Client parameter names, as sent in request bodies and query strings.
const (
	ParamUserID              = "userId"
	ParamProblemID           = "problemId"
	ParamSolutionID          = "solutionId"
	ParamSignedVote          = "signedVote"
	ParamRecipientUserID     = "recipientUserId"
	ParamProblemTitle        = "problemTitle"
	ParamProblemDescription  = "problemDescription"
	ParamProblemTags         = "problemTags"
	ParamSolutionTitle       = "solutionTitle"
	ParamSolutionDescription = "solutionDescription"
	ParamSolutionTags        = "solutionTags"
	ParamLinkTitle           = "linkTitle"
	ParamLinkURL             = "linkUrl"
	ParamLimit               = "limit"
)

func identity() dispatch.Param {
	return dispatch.Param{Name: ParamUserID, Source: dispatch.SourceIdentity, Kind: dispatch.KindInt}
}

func client(name string, kind dispatch.Kind) dispatch.Param {
	return dispatch.Param{Name: name, Source: dispatch.SourceClient, Kind: kind}
}

func optional(name string, kind dispatch.Kind) dispatch.Param {
	p := client(name, kind)
	p.Optional = true
	return p
}

// Read operations, served by GET /procedures.
func Read() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:      "GET_PROFILE",
			Mode:      dispatch.ModeRead,
			Statement: "select user_id, num_d365_tokens, signout_ts from sandbox.users where user_id = $1",
			Params:    []dispatch.Param{identity()},
		},
		{
			// a NULL limit means no limit
			Name:      "GET_PROBLEM_RANK",
			Mode:      dispatch.ModeRead,
			Statement: "select problem_id, problem_title, score, rank from sandbox.problem_rank order by rank, problem_id limit $1",
			Params:    []dispatch.Param{optional(ParamLimit, dispatch.KindInt)},
		},
		{
			Name:      "GET_SOLUTION_RANK",
			Mode:      dispatch.ModeRead,
			Statement: "select solution_id, problem_id, solution_title, score, rank from sandbox.solution_rank where problem_id = $1 order by rank, solution_id",
			Params:    []dispatch.Param{client(ParamProblemID, dispatch.KindInt)},
		},
		{
			Name:      "GET_DELEGATIONS",
			Mode:      dispatch.ModeRead,
			Statement: "select delegating_user_id, recipient_user_id, created_ts from sandbox.delegations where delegating_user_id = $1 or recipient_user_id = $1",
			Params:    []dispatch.Param{identity()},
		},
	}
}

// Write operations, served by POST /procedures.
func Write() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:      "ADD_PROBLEM_VOTE",
			Mode:      dispatch.ModeWrite,
			Statement: "call sandbox.add_problem_vote(_user_id := $1, _problem_id := $2, _signed_vote := $3)",
			Params: []dispatch.Param{
				identity(),
				client(ParamProblemID, dispatch.KindInt),
				client(ParamSignedVote, dispatch.KindDecimal),
			},
		},
		{
			Name:      "ADD_SOLUTION_VOTE",
			Mode:      dispatch.ModeWrite,
			Statement: "call sandbox.add_solution_vote(_user_id := $1, _solution_id := $2, _signed_vote := $3)",
			Params: []dispatch.Param{
				identity(),
				client(ParamSolutionID, dispatch.KindInt),
				client(ParamSignedVote, dispatch.KindDecimal),
			},
		},
		{
			Name:      "DELEGATE",
			Mode:      dispatch.ModeWrite,
			Statement: "call sandbox.delegate(_delegating_user_id := $1, _recipient_user_id := $2)",
			Params: []dispatch.Param{
				identity(),
				client(ParamRecipientUserID, dispatch.KindInt),
			},
		},
		{
			Name:      "INSERT_PROBLEM",
			Mode:      dispatch.ModeWrite,
			Statement: "call sandbox.insert_problem(_problem_title := $1, _problem_description := $2, _problem_tags := $3)",
			Params: []dispatch.Param{
				client(ParamProblemTitle, dispatch.KindText),
				client(ParamProblemDescription, dispatch.KindText),
				optional(ParamProblemTags, dispatch.KindTextList),
			},
		},
		{
			Name:      "INSERT_PROBLEM_LINK",
			Mode:      dispatch.ModeWrite,
			Statement: "call sandbox.insert_problem_link(_problem_id := $1, _link_title := $2, _link_url := $3)",
			Params: []dispatch.Param{
				client(ParamProblemID, dispatch.KindInt),
				client(ParamLinkTitle, dispatch.KindText),
				client(ParamLinkURL, dispatch.KindText),
			},
		},
		{
			Name:      "INSERT_SOLUTION",
			Mode:      dispatch.ModeWrite,
			Statement: "call sandbox.insert_solution(_problem_id := $1, _solution_title := $2, _solution_description := $3, _solution_tags := $4)",
			Params: []dispatch.Param{
				client(ParamProblemID, dispatch.KindInt),
				client(ParamSolutionTitle, dispatch.KindText),
				client(ParamSolutionDescription, dispatch.KindText),
				optional(ParamSolutionTags, dispatch.KindTextList),
			},
		},
		{
			Name:      "INSERT_SOLUTION_LINK",
			Mode:      dispatch.ModeWrite,
			Statement: "call sandbox.insert_solution_link(_solution_id := $1, _link_title := $2, _link_url := $3)",
			Params: []dispatch.Param{
				client(ParamSolutionID, dispatch.KindInt),
				client(ParamLinkTitle, dispatch.KindText),
				client(ParamLinkURL, dispatch.KindText),
			},
		},
		{
			Name:      "SIGNOUT",
			Mode:      dispatch.ModeWrite,
			Statement: "call sandbox.signout_user(_user_id := $1)",
			Params:    []dispatch.Param{identity()},
		},
	}
}

// Scheduled operations, run by the scheduler and cmd/maintenance.
func Scheduled() []dispatch.Operation {
	return []dispatch.Operation{
		{Name: "AIRDROP", Mode: dispatch.ModeScheduled, Statement: "call sandbox.airdrop()"},
		{Name: "LOG_RANK_HISTORIES", Mode: dispatch.ModeScheduled, Statement: "call sandbox.log_rank_histories()"},
		{Name: "REFRESH_PROBLEM_RANK", Mode: dispatch.ModeScheduled, Statement: "refresh materialized view concurrently sandbox.problem_rank"},
		{Name: "REFRESH_SOLUTION_RANK", Mode: dispatch.ModeScheduled, Statement: "refresh materialized view concurrently sandbox.solution_rank"},
		{Name: "EXPIRE_SESSIONS", Mode: dispatch.ModeScheduled, Statement: "call sandbox.expire_sessions()"},
	}
}

// Registries builds the three validated tables.
func Registries() (read, write, scheduled *dispatch.Registry, err error) {
	if read, err = dispatch.NewRegistry(dispatch.ModeRead, Read()); err != nil {
		return nil, nil, nil, err
	}
	if write, err = dispatch.NewRegistry(dispatch.ModeWrite, Write()); err != nil {
		return nil, nil, nil, err
	}
	if scheduled, err = dispatch.NewRegistry(dispatch.ModeScheduled, Scheduled()); err != nil {
		return nil, nil, nil, err
	}
	return read, write, scheduled, nil
}
