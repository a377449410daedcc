package mockaws

import (
	"fmt"
	"net/http"
)

const stsResponseTemplate = `<GetCallerIdentityResponse xmlns="https://sts.amazonaws.com/doc/2011-06-15/">
  <GetCallerIdentityResult>
    <Arn>arn:aws:iam::%[1]s:user/mockaws</Arn>
    <UserId>AIDAMOCKAWS</UserId>
    <Account>%[1]s</Account>
  </GetCallerIdentityResult>
  <ResponseMetadata>
    <RequestId>%[2]s</RequestId>
  </ResponseMetadata>
</GetCallerIdentityResponse>`

func (s *Service) serveSTS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostFormValue("Action") != "GetCallerIdentity" {
		http.Error(w, "unsupported request", http.StatusBadRequest)
		return
	}
	s.logger.Printf("STS request GetCallerIdentity")

	s.lock.Lock()
	requestID := s.nextID("request")
	s.lock.Unlock()

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, stsResponseTemplate, s.accountID, requestID)
}
