package mockaws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

const eventBridgeContentType = "application/x-amz-json-1.1"

func (s *Service) serveEventBridge(w http.ResponseWriter, r *http.Request) {
	target := r.Header.Get("X-Amz-Target")
	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.eventBridgeError(w, "ValidationException", "malformed request body")
		return
	}
	s.logger.Printf("EventBridge request %s %s", target, string(body))

	switch strings.TrimPrefix(target, "AWSEvents.") {
	case "PutRule":
		s.eventsPutRule(w, body)
	case "PutTargets":
		s.eventsPutTargets(w, body)
	case "RemoveTargets":
		s.eventsRemoveTargets(w, body)
	case "DeleteRule":
		s.eventsDeleteRule(w, body)
	case "PutEvents":
		s.eventsPutEvents(w, body)
	default:
		s.eventBridgeError(w, "ValidationException", fmt.Sprintf("unsupported operation %q", target))
	}
}

func (s *Service) eventBridgeError(w http.ResponseWriter, code, message string) {
	writeJSON(w, eventBridgeContentType, http.StatusBadRequest, map[string]string{
		"__type":  code,
		"message": message,
	})
}

func normalizeBus(bus string) string {
	if bus == "" {
		return "default"
	}
	return bus
}

func ruleKey(bus, name string) string {
	return normalizeBus(bus) + "|" + name
}

func (s *Service) eventsPutRule(w http.ResponseWriter, body json.RawMessage) {
	var request struct {
		Name         string `json:"Name"`
		EventPattern string `json:"EventPattern"`
		EventBusName string `json:"EventBusName"`
		Tags         []struct {
			Key   string `json:"Key"`
			Value string `json:"Value"`
		} `json:"Tags"`
	}
	if err := json.Unmarshal(body, &request); err != nil || request.Name == "" {
		s.eventBridgeError(w, "ValidationException", "Name is required")
		return
	}
	var pattern eventPattern
	if err := json.Unmarshal([]byte(request.EventPattern), &pattern); err != nil {
		s.eventBridgeError(w, "InvalidEventPatternException", "EventPattern is not valid JSON")
		return
	}
	tags := make(map[string]string, len(request.Tags))
	for _, tag := range request.Tags {
		tags[tag.Key] = tag.Value
	}

	s.lock.Lock()
	rule := &mockRule{
		name:      request.Name,
		bus:       request.EventBusName,
		arn:       fmt.Sprintf("arn:aws:events:%s:%s:rule/%s/%s", s.region, s.accountID, request.EventBusName, request.Name),
		pattern:   pattern,
		tags:      tags,
		createdAt: time.Now(),
		targets:   make(map[string]string),
	}
	s.rules[ruleKey(request.EventBusName, request.Name)] = rule
	s.lock.Unlock()

	writeJSON(w, eventBridgeContentType, http.StatusOK, map[string]string{"RuleArn": rule.arn})
}

func (s *Service) eventsPutTargets(w http.ResponseWriter, body json.RawMessage) {
	var request struct {
		Rule         string `json:"Rule"`
		EventBusName string `json:"EventBusName"`
		Targets      []struct {
			ID  string `json:"Id"`
			Arn string `json:"Arn"`
		} `json:"Targets"`
	}
	_ = json.Unmarshal(body, &request)

	s.lock.Lock()
	rule := s.rules[ruleKey(request.EventBusName, request.Rule)]
	if rule != nil {
		for _, target := range request.Targets {
			rule.targets[target.ID] = target.Arn
		}
	}
	s.lock.Unlock()

	if rule == nil {
		s.eventBridgeError(w, "ResourceNotFoundException", "rule does not exist")
		return
	}
	writeJSON(w, eventBridgeContentType, http.StatusOK, map[string]interface{}{
		"FailedEntryCount": 0,
		"FailedEntries":    []struct{}{},
	})
}

func (s *Service) eventsRemoveTargets(w http.ResponseWriter, body json.RawMessage) {
	var request struct {
		Rule         string   `json:"Rule"`
		EventBusName string   `json:"EventBusName"`
		IDs          []string `json:"Ids"`
	}
	_ = json.Unmarshal(body, &request)

	s.lock.Lock()
	rule := s.rules[ruleKey(request.EventBusName, request.Rule)]
	if rule != nil {
		for _, id := range request.IDs {
			delete(rule.targets, id)
		}
	}
	s.lock.Unlock()

	if rule == nil {
		s.eventBridgeError(w, "ResourceNotFoundException", "rule does not exist")
		return
	}
	writeJSON(w, eventBridgeContentType, http.StatusOK, map[string]interface{}{
		"FailedEntryCount": 0,
		"FailedEntries":    []struct{}{},
	})
}

func (s *Service) eventsDeleteRule(w http.ResponseWriter, body json.RawMessage) {
	var request struct {
		Name         string `json:"Name"`
		EventBusName string `json:"EventBusName"`
	}
	_ = json.Unmarshal(body, &request)

	s.lock.Lock()
	key := ruleKey(request.EventBusName, request.Name)
	_, existed := s.rules[key]
	delete(s.rules, key)
	s.lock.Unlock()

	if !existed {
		s.eventBridgeError(w, "ResourceNotFoundException", "rule does not exist")
		return
	}
	writeJSON(w, eventBridgeContentType, http.StatusOK, map[string]string{})
}

func (s *Service) eventsPutEvents(w http.ResponseWriter, body json.RawMessage) {
	var request struct {
		Entries []struct {
			Source       string `json:"Source"`
			DetailType   string `json:"DetailType"`
			Detail       string `json:"Detail"`
			EventBusName string `json:"EventBusName"`
		} `json:"Entries"`
	}
	_ = json.Unmarshal(body, &request)

	type outEntry struct {
		EventID string `json:"EventId"`
	}
	out := make([]outEntry, 0, len(request.Entries))

	s.lock.Lock()
	for _, entry := range request.Entries {
		eventID := s.nextID("event")
		out = append(out, outEntry{EventID: eventID})
		s.routeEvent(eventID, entry.EventBusName, entry.Source, entry.DetailType, entry.Detail)
	}
	s.lock.Unlock()

	writeJSON(w, eventBridgeContentType, http.StatusOK, map[string]interface{}{
		"FailedEntryCount": 0,
		"Entries":          out,
	})
}

// routeEvent matches one event against all active rules on the bus and delivers the
// EventBridge envelope to each matching rule's queue targets. The caller must hold the
// lock.
func (s *Service) routeEvent(eventID, bus, source, detailType, detail string) {
	for _, rule := range s.rules {
		if normalizeBus(rule.bus) != normalizeBus(bus) {
			continue
		}
		if !rule.matches(source, detailType) {
			continue
		}
		if s.activationLag > 0 && time.Since(rule.createdAt) < s.activationLag {
			s.logger.Printf("dropping event %s: rule %q is not active yet", eventID, rule.name)
			continue
		}
		envelope := map[string]interface{}{
			"version":     "0",
			"id":          eventID,
			"detail-type": detailType,
			"source":      source,
			"account":     s.accountID,
			"time":        time.Now().UTC().Format(time.RFC3339),
			"region":      s.region,
			"resources":   []string{},
			"detail":      json.RawMessage(detail),
		}
		body, _ := json.Marshal(envelope)
		for _, queue := range s.queues {
			if slices.Contains(targetARNs(rule), queue.arn) {
				queue.messages = append(queue.messages, mockMessage{
					id:      eventID,
					receipt: s.nextID("receipt"),
					body:    string(body),
				})
				s.logger.Printf("delivered event %s to queue %q via rule %q", eventID, queue.name, rule.name)
			}
		}
	}
}

func targetARNs(rule *mockRule) []string {
	arns := make([]string, 0, len(rule.targets))
	for _, arn := range rule.targets {
		arns = append(arns, arn)
	}
	return arns
}

func (rule *mockRule) matches(source, detailType string) bool {
	if len(rule.pattern.Source) > 0 && !slices.Contains(rule.pattern.Source, source) {
		return false
	}
	if len(rule.pattern.DetailType) > 0 && !slices.Contains(rule.pattern.DetailType, detailType) {
		return false
	}
	return true
}
