package prompt

const basicInfoIntro = `You are a carbon offset project validator analyzing a project document. Extract the following project information in a structured format.`

const basicInfoInstructions = `Extract basic project information from the document and format it in XML.
Be specific and accurate. If information is not available, write "Not specified".
Write dates as YYYY-MM-DD and coordinates as [LATITUDE, LONGITUDE] in decimal degrees.
Respond with exactly one <project_info> block.`

const basicInfoFormat = `<project_info>
  <project_code>CODE</project_code>
  <name>PROJECT NAME</name>
  <description>BRIEF DESCRIPTION</description>
  <location>LOCATION</location>
  <coordinates>[LATITUDE, LONGITUDE]</coordinates>
  <status>STATUS</status>
  <start_date>START DATE</start_date>
  <end_date>END DATE</end_date>
  <methodology>METHODOLOGY</methodology>
  <size>SIZE</size>
</project_info>`

const designRiskIntro = `You are analyzing the risk profile of a carbon offset project by comparing it with established carbon offset policy documents.`

const designRiskInstructions = `Review the project document and compare it against carbon offset policy standards.
Identify potential risks across different categories.
Assign a risk score (integer 0-100), impact level (Low, Medium, High), and likelihood (Unlikely, Possible, Likely).
Provide a brief description for each risk.
Respond with exactly one <risk_metrics> block containing one <risk_category> per risk.`

const designRiskFormat = `<risk_metrics>
  <risk_category name="Permanence">
    <score>SCORE_VALUE</score>
    <impact>IMPACT_LEVEL</impact>
    <likelihood>LIKELIHOOD</likelihood>
    <description>RISK_DESCRIPTION</description>
  </risk_category>
  <!-- Additional risk categories -->
</risk_metrics>`

const policyIntro = `You are evaluating a carbon offset project's compliance with country and regional level policy requirements.`

const policyInstructions = `Analyze the project document against country and regional policy documents.
Determine compliance levels and identify any regional-specific risks.
Summarize your findings and give prioritized recommendations (priority: low, medium or high).
Respond with exactly one <summary> block.`

const policyGISInstructions = `Analyze the project document against country and regional policy documents.
Determine compliance levels and identify any regional-specific risks.
Summarize your findings and give prioritized recommendations (priority: low, medium or high).
Generate yearly deforestation (hectares) and emissions (tonnes) data based on the available information.
Create land use distribution data suitable for a pie chart visualization.
Respond with exactly one <summary> block.`

const policyFormat = `<summary>
  <overall_summary>COMPREHENSIVE_SUMMARY</overall_summary>
  <recommendations>
    <recommendation>
      <action>ACTION_DESCRIPTION</action>
      <priority>PRIORITY_LEVEL</priority>
    </recommendation>
    <!-- Additional recommendations -->
  </recommendations>
  <additional_insights>ADDITIONAL_INSIGHTS</additional_insights>
</summary>`

const policyGISFormat = `<summary>
  <overall_summary>COMPREHENSIVE_SUMMARY</overall_summary>
  <recommendations>
    <recommendation>
      <action>ACTION_DESCRIPTION</action>
      <priority>PRIORITY_LEVEL</priority>
    </recommendation>
    <!-- Additional recommendations -->
  </recommendations>
  <additional_insights>ADDITIONAL_INSIGHTS</additional_insights>
  <deforestation_data>
    <data_point><year>YEAR</year><hectares>HECTARES</hectares></data_point>
  </deforestation_data>
  <emissions_data>
    <data_point><year>YEAR</year><tonnes>TONNES</tonnes></data_point>
  </emissions_data>
  <pie_chart_data>
    <segment><category>LAND_USE</category><value>SHARE</value></segment>
  </pie_chart_data>
</summary>`

const questionIntro = `You are answering a question about a carbon offset project using only the stored analysis below.`

const questionInstructions = `Provide a clear, factual answer based only on the information provided.
If the information does not answer the question, say so. Respond in plain text without XML.`
