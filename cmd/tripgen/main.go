package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"
)

var (
	rows = flag.Int("rows", 1000, "Number of trip records to generate")
	seed = flag.Int64("seed", 0, "Random seed (0 uses the current time)")
	out  = flag.String("out", "", "Output file (default stdout)")
)

var midtownZones = []int{90, 100, 161, 162, 163, 164, 186, 230, 234}

const jfkZone = 132

// Generates a synthetic yellow-cab trip CSV in the TLC export column layout.
// A mix of qualifying and non-qualifying zones, weekday and weekend pickups,
// and implausibly short or long durations exercises every path of the
// analyzer.
func main() {
	flag.Parse()

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Error creating output file: %v", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Fatalf("Error closing output file: %v", err)
			}
		}()
		w = f
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))
	log.Printf("Generating %d trip records (seed %d)", *rows, s)

	cw := csv.NewWriter(w)
	header := []string{
		"VendorID",
		"tpep_pickup_datetime",
		"tpep_dropoff_datetime",
		"passenger_count",
		"trip_distance",
		"PULocationID",
		"DOLocationID",
	}
	if err := cw.Write(header); err != nil {
		log.Fatalf("Error writing header: %v", err)
	}

	for i := 0; i < *rows; i++ {
		if err := cw.Write(generateTrip(rng)); err != nil {
			log.Fatalf("Error writing record %d: %v", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Fatalf("Error flushing output: %v", err)
	}
	log.Printf("Done.")
}

const timeLayout = "2006-01-02 15:04:05"

func generateTrip(rng *rand.Rand) []string {
	// Any second of June 2021, so pickups land on weekdays and weekends alike
	base := time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)
	pickup := base.Add(time.Duration(rng.Intn(30*24*3600)) * time.Second)

	pickupZone := rng.Intn(265) + 1
	// ~40% of pickups from the midtown set
	if rng.Float64() < 0.4 {
		pickupZone = midtownZones[rng.Intn(len(midtownZones))]
	}

	dropoffZone := rng.Intn(265) + 1
	// ~50% of dropoffs at JFK
	if rng.Float64() < 0.5 {
		dropoffZone = jfkZone
	}

	var durationSec int
	switch r := rng.Float64(); {
	case r < 0.05: // implausibly short
		durationSec = rng.Intn(1200)
	case r < 0.08: // beyond the 3-hour bound
		durationSec = 10800 + rng.Intn(7200)
	default:
		durationSec = 1500 + rng.Intn(5400)
	}
	dropoff := pickup.Add(time.Duration(durationSec) * time.Second)

	distance := 2.0 + rng.Float64()*20.0

	return []string{
		strconv.Itoa(1 + rng.Intn(2)),
		pickup.Format(timeLayout),
		dropoff.Format(timeLayout),
		strconv.Itoa(1 + rng.Intn(4)),
		fmt.Sprintf("%.2f", distance),
		strconv.Itoa(pickupZone),
		strconv.Itoa(dropoffZone),
	}
}
