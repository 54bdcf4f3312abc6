// Manual smoke probe for a running server: subscribes to the broadcast
// websocket, places an order over HTTP and prints the events that arrive.
// Not part of the automated test suite.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

const baseURL = "http://localhost:8080"

func main() {
	conn, _, err := websocket.DefaultDialer.Dial("ws://localhost:8080/ws", nil)
	if err != nil {
		fmt.Printf("websocket dial failed: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	go func() {
		for {
			var event map[string]interface{}
			if err := conn.ReadJSON(&event); err != nil {
				fmt.Printf("websocket closed: %v\n", err)
				return
			}
			pretty, _ := json.MarshalIndent(event, "", "  ")
			fmt.Printf("event received:\n%s\n", pretty)
		}
	}()

	placeOrder()

	// Leave the subscription open long enough to observe status updates
	// triggered from another client.
	time.Sleep(60 * time.Second)
}

func placeOrder() {
	order := map[string]interface{}{
		"customer_id":   "smoke_customer",
		"restaurant_id": "smoke_restaurant",
		"items": []map[string]interface{}{
			{"menu_item_id": "smoke_item", "quantity": 2},
		},
		"delivery_address": map[string]string{
			"street":   "1 Test Street",
			"city":     "Test City",
			"state":    "TS",
			"zip_code": "12345",
			"country":  "Testland",
		},
	}

	data, _ := json.Marshal(order)
	req, _ := http.NewRequest(http.MethodPost, baseURL+"/api/orders", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token := os.Getenv("SMOKE_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("place order failed: %v\n", err)
		return
	}
	defer resp.Body.Close()
	fmt.Printf("place order: %s\n", resp.Status)
}
