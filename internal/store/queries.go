package store

const (
	SaveAssessmentRunQuery = `
		MERGE (r:AssessmentRun {uuid: $uuid})
		SET r.created_at = $created_at,
			r.total_disability = $total_disability,
			r.organ_count = $organ_count,
			r.contributing_count = $contributing_count
		RETURN r.uuid AS uuid
	`

	SaveOrganAssessmentQuery = `
		MERGE (o:OrganAssessment {uuid: $uuid})
		SET o.run_uuid = $run_uuid,
			o.body_part = $body_part,
			o.disability_percentage = $disability_percentage,
			o.section_used = $section_used,
			o.reasoning = $reasoning,
			o.confidence = $confidence,
			o.status = $status,
			o.missing_info = $missing_info
		RETURN o.uuid AS uuid
	`

	SaveHasOrganEdgeQuery = `
		MATCH (r:AssessmentRun {uuid: $run_uuid})
		MATCH (o:OrganAssessment {uuid: $organ_uuid})
		MERGE (r)-[e:HAS_ORGAN]->(o)
		SET e.rank = $rank
		RETURN o.uuid AS uuid
	`

	GetRunQuery = `
		MATCH (r:AssessmentRun {uuid: $uuid})
		RETURN r.uuid AS uuid, r.created_at AS created_at,
			r.total_disability AS total_disability
	`
)
