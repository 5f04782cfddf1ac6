package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	queuePkg "github.com/verdantpeak/cultivation-engine/pkg/queue"
	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

// Enqueues a sample turn request for a run, so a running worker can be
// watched processing it. Usage: test-enqueue <run-id>
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: test-enqueue <run-id>")
	}
	runID, err := uuid.Parse(os.Args[1])
	if err != nil {
		log.Fatal("Invalid run ID:", err)
	}

	redisOpts, err := redis.ParseURL("redis://localhost:6379")
	if err != nil {
		log.Fatal("Failed to parse Redis URL:", err)
	}
	client := redis.NewClient(redisOpts)
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	fmt.Println("Connected to Redis successfully!")

	tr := &state.TurnResult{
		Narrative: "You spend the night in quiet meditation beneath the waterfall, letting the cold spray temper your body while your qi circulates.",
		Choices: []state.Choice{
			{Text: "Continue meditating until dawn"},
			{Text: "Return to the sect"},
			{Text: "Explore the cave behind the waterfall"},
		},
		ProposedDeltas: []state.Delta{
			{Field: "stats.qi", Operation: state.OpAdd, Value: json.RawMessage(`8`), Reason: "waterfall meditation"},
			{Field: "progress.cultivation_exp", Operation: state.OpAdd, Value: json.RawMessage(`25`), Reason: "waterfall meditation"},
		},
	}

	req := queuePkg.NewTurnRequest(runID, tr)

	data, err := json.Marshal(req)
	if err != nil {
		log.Fatal("Failed to marshal request:", err)
	}

	if err := client.RPush(ctx, "turn-requests", data).Err(); err != nil {
		log.Fatal("Failed to enqueue request:", err)
	}

	fmt.Printf("Enqueued turn request: %s\n", req.RequestID)

	depth, err := client.LLen(ctx, "turn-requests").Result()
	if err != nil {
		log.Fatal("Failed to get queue depth:", err)
	}

	fmt.Printf("Queue depth: %d requests\n", depth)
	fmt.Println("Now start the worker to see it process the request:")
	fmt.Println("   go run cmd/worker/main.go")
}
