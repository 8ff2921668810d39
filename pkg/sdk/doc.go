// Package termmap provides a Go client for the termmap terminology
// resolution service.
//
// The client wraps the service's HTTP API: single-term mapping,
// free-text extraction, and asynchronous batch jobs.
//
//	client, _ := termmap.New(termmap.WithBaseURL("http://localhost:8090"))
//	res, _ := client.MapTerm(ctx, "hypertension")
//	for _, m := range res.Mappings["snomed"] {
//	    fmt.Println(m.Code, m.Display, m.Confidence)
//	}
//
// Batch jobs are submitted and polled:
//
//	job, _ := client.SubmitBatch(ctx, []string{"diabetes", "glucose"})
//	done, _ := client.WaitForJob(ctx, job.JobID, time.Second)
package termmap
