// SPDX-License-Identifier: MIT
package stats_test

import (
	"fmt"

	"github.com/katalvlaran/gravcal/stats"
)

func ExamplePhid() {
	obs := []float64{10, 20, 30}
	pred := []float64{20, 20, 20}

	phid, err := stats.Phid(obs, pred)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("Phid=%.4f\n", phid)
	// Output: Phid=0.8333
}
