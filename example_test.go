package tick_test

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/tick"
	"github.com/aretw0/tick/internal/testutils"
	"github.com/aretw0/tick/pkg/adapters/sender"
	"github.com/aretw0/tick/pkg/domain"
)

func ExampleEngine_Process() {
	out := sender.NewWriter(os.Stdout, testutils.GameLabels())
	eng, err := tick.New(testutils.GameConfiguration(), tick.WithSender(out))
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	for _, intent := range []string{"bonjourRobot", "oui"} {
		res, err := eng.Process(ctx, "example", domain.Intent(intent, nil))
		if err != nil {
			panic(err)
		}
		fmt.Println("finished:", res.Finished)
	}

	// Output:
	// Bonjour humain !
	// Veux-tu jouer ?
	// Tic tac toe, oui ou non ?
	// finished: false
	// Tant mieux !
	// Au revoir humain.
	// finished: true
}
