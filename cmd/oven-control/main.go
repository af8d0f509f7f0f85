// Command oven-control runs the gas oven controller: it reads the thermistor
// amplifier through an ADS1115 ADC, drives the gas valve and igniter over
// GPIO, and publishes state transitions to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/oven-control/internal/config"
	"github.com/sweeney/oven-control/internal/control"
	"github.com/sweeney/oven-control/internal/hal"
	"github.com/sweeney/oven-control/internal/mqtt"
	"github.com/sweeney/oven-control/internal/status"
	"github.com/sweeney/oven-control/internal/web"
)

func main() {
	tick := flag.Duration("tick", 50*time.Millisecond, "Control loop interval")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	paramsFile := flag.String("params", "", "Optional YAML parameter file")
	pinGas := flag.Int("pin-gas", hal.DefaultPinGas, "BCM pin number for the gas valve")
	pinIgniter := flag.Int("pin-igniter", hal.DefaultPinIgniter, "BCM pin number for the igniter")
	pinDoor := flag.Int("pin-door", hal.DefaultPinDoor, "BCM pin number for the door switch")
	i2cBus := flag.String("i2c-bus", "", "I2C bus for the ADS1115 (empty for default)")
	printStatus := flag.Bool("print-status", false, "Print current sensor readings and exit")
	flameDetect := flag.Bool("flame-detect", true, "Require a temperature rise to confirm ignition")

	flag.Parse()

	if err := run(*tick, *broker, *httpAddr, *paramsFile, *pinGas, *pinIgniter, *pinDoor, *i2cBus, *printStatus, *flameDetect); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(tick time.Duration, broker, httpAddr, paramsFile string, pinGas, pinIgniter, pinDoor int, i2cBus string, printStatus, flameDetect bool) error {
	store := config.NewStore()
	store.SetFlameDetectEnabled(flameDetect)
	if paramsFile != "" {
		if err := store.LoadFile(paramsFile); err != nil {
			return fmt.Errorf("load params: %w", err)
		}
		log.Printf("loaded parameters from %s", paramsFile)
	}
	params := store.Snapshot()

	// Initialize hardware
	board, err := hal.NewRealBoard(hal.BoardConfig{
		PinGas:     pinGas,
		PinIgniter: pinIgniter,
		PinDoor:    pinDoor,
		I2CBus:     i2cBus,
	})
	if err != nil {
		return fmt.Errorf("init board: %w", err)
	}
	defer board.Close()

	// Print status mode
	if printStatus {
		vrefMV, signalMV, err := board.ReadSensors()
		if err != nil {
			return fmt.Errorf("read sensors: %w", err)
		}
		tempC := control.MapTemperature(float64(vrefMV), float64(signalMV))
		fmt.Printf("vref: %dmV, signal: %dmV, temperature: %.1fC\n", vrefMV, signalMV, tempC)
		return nil
	}

	ctrl := control.New(store)

	// Door edge handler: cut the outputs immediately, then let the next
	// tick pick up the flag and run the state transition.
	err = board.WatchDoor(func(open bool) {
		if open {
			board.EmergencyStop()
			log.Printf("door open, emergency stop")
		}
		ctrl.SetDoorOpen(open)
	})
	if err != nil {
		return fmt.Errorf("watch door: %w", err)
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:        tick.Milliseconds(),
		PeriodicLogMs: params.PeriodicLogInterval.Milliseconds(),
		Broker:        broker,
		HTTPAddr:      httpAddr,
		ParamsFile:    paramsFile,
		FilterWindow:  params.FilterWindow,
		FlameDetect:   params.FlameDetectEnabled,
	})

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker, ctrl.RequestLockoutReset)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: tick=%v broker=%s target=%.1fC delta=%.1fC attempts=%d flame-detect=%v",
		tick, broker, params.TempTargetC, params.TempDeltaC, params.MaxIgnitionAttempts, params.FlameDetectEnabled)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	err = runLoop(board, ctrl, publisher, publisher, tracker, store, time.Now, ticker.C, sigCh)

	// Leave the burner off no matter how the loop ended.
	board.EmergencyStop()
	return err
}

func runLoop(board hal.Board, ctrl *control.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, store *config.Store, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	var lastLog time.Time

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			board.EmergencyStop()
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			vrefMV, signalMV, err := board.ReadSensors()
			if err != nil {
				log.Printf("sensor read error: %v", err)
				continue
			}

			outputs, events := ctrl.Tick(t, vrefMV, signalMV)

			// Apply outputs unconditionally: the door edge handler may have
			// cut the lines out-of-band since the last tick, so the levels
			// must be re-asserted even when the commanded state is unchanged.
			if err := board.SetGas(outputs.Gas); err != nil {
				log.Printf("gas valve error: %v", err)
			}
			if err := board.SetIgniter(outputs.Igniter); err != nil {
				log.Printf("igniter error: %v", err)
			}

			st := ctrl.Status()
			for _, event := range events {
				log.Printf("event: %s (state=%s temp=%.1fC attempt=%d)",
					event.Type, event.Status.State, event.Status.TemperatureC, event.Status.IgnitionAttempt)
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			// Periodic status line
			interval := store.Snapshot().PeriodicLogInterval
			if lastLog.IsZero() || t.Sub(lastLog) >= interval {
				log.Printf("status: vref=%dmV signal=%dmV temp=%.1fC door=%v state=%s gas=%v igniter=%v fault=%v attempt=%d",
					vrefMV, signalMV, st.TemperatureC, st.DoorOpen, st.State,
					st.GasOn, st.IgniterOn, st.SensorFault, st.IgnitionAttempt)
				lastLog = t
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(st)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
		}
	}
}
