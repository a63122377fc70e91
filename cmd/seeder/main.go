// FilePath: cmd/seeder/main.go

// Seeder pushes synthetic sensor readings at a running hub, useful
// for demos and for exercising the alert pipeline end to end.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/go-resty/resty/v2"
)

type scenario struct {
	name      string
	waterBase float64 // cm
	waterStep float64 // cm added per reading
	piezoBase float64
	rainBase  float64
}

var scenarios = map[string]scenario{
	"normal": {name: "normal", waterBase: 15, waterStep: 0, piezoBase: 5, rainBase: 3},
	"rain":   {name: "rain", waterBase: 25, waterStep: 1, piezoBase: 45, rainBase: 40},
	"rising": {name: "rising", waterBase: 35, waterStep: 4, piezoBase: 60, rainBase: 55},
	"flood":  {name: "flood", waterBase: 82, waterStep: 2, piezoBase: 85, rainBase: 80},
}

type reading struct {
	NodeID          string  `json:"node_id"`
	PiezoValue      float64 `json:"piezo_value"`
	UltrasonicValue float64 `json:"ultrasonic_value"`
	RainSensorValue float64 `json:"rain_sensor_value"`
	Location        string  `json:"location"`
}

func main() {
	var (
		target   = flag.String("target", "http://localhost:8000", "hub base URL")
		node     = flag.String("node", "node_1", "node ID to report as")
		location = flag.String("location", "Riverside Station", "node location")
		scene    = flag.String("scenario", "normal", "one of: normal, rain, rising, flood")
		count    = flag.Int("count", 10, "number of readings to send")
		interval = flag.Duration("interval", 2*time.Second, "delay between readings")
		token    = flag.String("token", "", "device token, if the hub requires one")
	)
	flag.Parse()

	sc, ok := scenarios[*scene]
	if !ok {
		log.Fatalf("unknown scenario %q", *scene)
	}

	client := resty.New().SetBaseURL(*target).SetTimeout(10 * time.Second)

	fmt.Printf("Seeding %d %q readings for %s -> %s\n", *count, sc.name, *node, *target)

	for i := 0; i < *count; i++ {
		r := reading{
			NodeID:          *node,
			PiezoValue:      jitter(sc.piezoBase, 5),
			UltrasonicValue: jitter(sc.waterBase+float64(i)*sc.waterStep, 2),
			RainSensorValue: jitter(sc.rainBase, 5),
			Location:        *location,
		}

		req := client.R().SetBody(r)
		if *token != "" {
			req.SetHeader("X-Device-Token", *token)
		}

		resp, err := req.Post("/api/v1/sensor-data")
		if err != nil {
			log.Printf("send failed: %v", err)
		} else {
			fmt.Printf("  [%d/%d] water=%.1fcm -> %s\n", i+1, *count, r.UltrasonicValue, resp.Status())
		}

		if i < *count-1 {
			time.Sleep(*interval)
		}
	}
}

func jitter(base, spread float64) float64 {
	v := base + (rand.Float64()*2-1)*spread
	if v < 0 {
		return 0
	}
	return v
}
