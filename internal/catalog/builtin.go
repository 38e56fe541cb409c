package catalog

import (
	"fmt"

	"explab/internal/exp"
)

// Task samples per benchmark. Real deployments register their own groups;
// these mirror the benchmark suites the CLI accepts.
var benchmarkTasks = map[string][]string{
	"miniwob": {
		"miniwob.click-button",
		"miniwob.click-checkboxes",
		"miniwob.email-inbox",
		"miniwob.login-user",
		"miniwob.search-engine",
	},
	"workarena.l1": {
		"workarena.servicenow.order-standard-laptop",
		"workarena.servicenow.filter-asset-list",
		"workarena.servicenow.knowledge-base-search",
	},
	"workarena.l2": {
		"workarena.servicenow.l2.create-incident-and-assign",
		"workarena.servicenow.l2.expense-report-audit",
	},
	"workarena.l3": {
		"workarena.servicenow.l3.quarterly-asset-review",
	},
}

func tasksForBenchmark(benchmark string) ([]string, error) {
	tasks, ok := benchmarkTasks[benchmark]
	if !ok {
		return nil, fmt.Errorf("no task list for benchmark %q", benchmark)
	}
	return tasks, nil
}

func init() {
	RegisterGroup("exp_configs.final_run", func(agent *exp.AgentArgs, benchmark string) ([]*exp.ExpArgs, error) {
		tasks, err := tasksForBenchmark(benchmark)
		if err != nil {
			return nil, err
		}
		units := make([]*exp.ExpArgs, 0, len(tasks))
		for _, task := range tasks {
			units = append(units, exp.New(agent, exp.EnvArgs{TaskName: task, MaxSteps: 30}))
		}
		return units, nil
	})

	// Same tasks at three seeds, for variance estimates.
	RegisterGroup("exp_configs.seed_sweep", func(agent *exp.AgentArgs, benchmark string) ([]*exp.ExpArgs, error) {
		tasks, err := tasksForBenchmark(benchmark)
		if err != nil {
			return nil, err
		}
		var units []*exp.ExpArgs
		for _, task := range tasks {
			for seed := 0; seed < 3; seed++ {
				units = append(units, exp.New(agent, exp.EnvArgs{TaskName: task, TaskSeed: seed, MaxSteps: 30}))
			}
		}
		return units, nil
	})

	RegisterAgent("agent_configs.gpt4o_agent", func() *exp.AgentArgs {
		return &exp.AgentArgs{
			AgentName: "gpt4o_agent",
			ChatModel: ChatModel("gpt-4o", 0.1),
			Command:   []string{"explab-worker"},
		}
	})

	RegisterAgent("agent_configs.llama70b_agent", func() *exp.AgentArgs {
		return &exp.AgentArgs{
			AgentName: "llama70b_agent",
			ChatModel: ChatModel("llama-3.1-70b", 0.1),
			Command:   []string{"explab-worker"},
		}
	})
}

// ChatModel builds the model args for a named model, leaving the URL to be
// resolved from the endpoint table at prepare time.
func ChatModel(name string, temperature float64) exp.ChatModelArgs {
	return exp.ChatModelArgs{
		ModelName:    name,
		Temperature:  temperature,
		MaxNewTokens: 512,
	}
}
