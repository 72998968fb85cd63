// Command bqlcli is a stdin REPL over the BQL engine backed by the
// in-memory GraphService, for local trial without standing up DynamoDB or
// EventBridge. Grounded on cmd/connect-node/main.go's small,
// single-purpose main() shape.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"bql/application/bql"
	"bql/application/bql/project"
	"bql/application/ports"
	"bql/domain/bql/relation"
	"bql/infrastructure/config"
	"bql/infrastructure/persistence/memory"
	apperrors "bql/pkg/errors"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store := memory.New()
	const graphID = "demo"
	seedDemoGraph(store, graphID)

	engine := bql.New(store, func() bql.Limits {
		return bql.Limits{
			MaxHopUpper:    cfg.Engine.MaxHopUpper,
			MaxSetBatch:    cfg.Engine.MaxSetBatch,
			MaxDeleteBatch: cfg.Engine.MaxDeleteBatch,
		}
	}, nil, logger)

	logger.Info("bqlcli ready", zap.String("graph", graphID))
	fmt.Println("BrainQuery CLI — enter a query, or 'confirm <query>' to run a DELETE, Ctrl-D to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("bql> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		runOne(engine, graphID, line)
	}
}

func runOne(engine *bql.Engine, graphID, line string) {
	confirm := false
	queryText := line
	const prefix = "confirm "
	if len(line) > len(prefix) && line[:len(prefix)] == prefix {
		confirm = true
		queryText = line[len(prefix):]
	}

	result, err := engine.Execute(context.Background(), queryText, bql.Options{
		ActiveGraphID: graphID,
		Confirm:       confirm,
	})
	if err != nil {
		printErr(err)
		return
	}
	printResult(result)
}

func printErr(err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		fmt.Printf("error [%s]: %s\n", appErr.Type, appErr.Message)
		return
	}
	fmt.Println("error:", err)
}

func printResult(r *bql.Result) {
	switch r.Kind {
	case bql.ResultRows:
		for _, row := range r.Rows {
			for i, v := range row {
				if i > 0 {
					fmt.Print(" | ")
				}
				printValue(v)
			}
			fmt.Println()
		}
		fmt.Printf("(%d rows)\n", len(r.Rows))
	case bql.ResultMutationReport:
		fmt.Printf("created=%v updated=%v deleted=%v warnings=%v\n",
			r.Report.Created, r.Report.Updated, r.Report.Deleted, r.Report.Warnings)
	case bql.ResultDeletePreview:
		fmt.Printf("would delete nodes=%v edges=%v (run with 'confirm ' to apply)\n",
			r.Preview.WouldDeleteNodes, r.Preview.WouldDeleteEdges)
	}
}

func printValue(v project.Value) {
	if !v.IsSet {
		fmt.Print("<null>")
		return
	}
	if v.Node != nil {
		fmt.Printf("%s(%s)", v.Node.Name, v.Node.ID)
		return
	}
	fmt.Print(v.Field)
}

func seedDemoGraph(store *memory.Store, graphID string) {
	personType := store.Seed(graphID, ports.NodeRecord{Name: "Person", Kind: "type"})
	alice := store.Seed(graphID, ports.NodeRecord{Name: "Alice", TypeID: personType})
	bob := store.Seed(graphID, ports.NodeRecord{Name: "Bob", TypeID: personType})
	carol := store.Seed(graphID, ports.NodeRecord{Name: "Carol", TypeID: personType})

	store.SeedEdge(graphID, ports.EdgeRecord{Relation: relation.Child, SourceID: alice, TargetID: bob})
	store.SeedEdge(graphID, ports.EdgeRecord{Relation: relation.Jump, SourceID: bob, TargetID: carol})
}
